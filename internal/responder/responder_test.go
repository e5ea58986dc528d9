package responder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []string
	inbox   [][]string
	recvErr error
	panicOn bool
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeNotifier) Receive(ctx context.Context, _ time.Duration) ([]string, error) {
	f.mu.Lock()
	if f.panicOn {
		f.panicOn = false
		f.mu.Unlock()
		panic("boom")
	}
	if f.recvErr != nil {
		err := f.recvErr
		f.recvErr = nil
		f.mu.Unlock()
		return nil, err
	}
	if len(f.inbox) > 0 {
		batch := f.inbox[0]
		f.inbox = f.inbox[1:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeGame struct {
	calls int
	err   error
}

func (g *fakeGame) ActivateVacationMode(context.Context) error {
	g.calls++
	return g.err
}

type countingCommands struct{ actions []string }

func (c *countingCommands) CommandReceived(action string) { c.actions = append(c.actions, action) }

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		want Command
		ok   bool
	}{
		{"4242:1", Command{4242, 1}, true},
		{"4242: 1", Command{4242, 1}, true},
		{"4242 7", Command{4242, 7}, true},
		{"please 99:2 now", Command{99, 2}, true},
		{"vacation", Command{}, false},
		{"", Command{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := ParseCommand(tc.text)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHandle_VacationForThisInstance(t *testing.T) {
	n := &fakeNotifier{}
	g := &fakeGame{}
	c := &countingCommands{}
	r := New(n, g, c, 4242, time.Second)

	r.Handle(context.Background(), "4242:1")

	assert.Equal(t, 1, g.calls)
	assert.Equal(t, []string{"1"}, c.actions)
	assert.Equal(t, []string{"Vacation mode activated"}, n.messages())
}

func TestHandle_OtherInstanceIgnored(t *testing.T) {
	n := &fakeNotifier{}
	g := &fakeGame{}
	r := New(n, g, nil, 4242, time.Second)

	r.Handle(context.Background(), "1111:1")
	r.Handle(context.Background(), "hello")

	assert.Zero(t, g.calls)
	assert.Empty(t, n.messages())
}

func TestHandle_UnknownAction(t *testing.T) {
	n := &fakeNotifier{}
	g := &fakeGame{}
	r := New(n, g, nil, 4242, time.Second)

	r.Handle(context.Background(), "4242:3")

	assert.Zero(t, g.calls)
	assert.Equal(t, []string{"Invalid command: 3"}, n.messages())
}

func TestHandle_VacationFailureReported(t *testing.T) {
	n := &fakeNotifier{}
	g := &fakeGame{err: errors.New("session expired")}
	r := New(n, g, nil, 4242, time.Second)

	r.Handle(context.Background(), "4242:1")

	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Error in:")
	assert.Contains(t, msgs[0], "session expired")
}

func TestRun_SurvivesPanicAndStopsOnCancel(t *testing.T) {
	n := &fakeNotifier{panicOn: true, inbox: [][]string{{"4242:9"}}}
	r := New(n, &fakeGame{}, nil, 4242, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return len(n.messages()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("responder did not stop")
	}

	msgs := n.messages()
	assert.Contains(t, msgs[0], "responder panic: boom")
	assert.Equal(t, "Invalid command: 9", msgs[1])
}
