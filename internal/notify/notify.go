package notify

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// MaxMessageLen stays under Telegram's 4096 character limit.
const MaxMessageLen = 4000

// Notifier delivers operator messages and returns operator replies.
type Notifier interface {
	Send(ctx context.Context, text string) error
	// Receive blocks for at most wait and returns the texts received meanwhile.
	// An empty result on timeout is not an error.
	Receive(ctx context.Context, wait time.Duration) ([]string, error)
}

// Log is a Notifier for runs without an operator channel: messages go to slog
// and no commands ever arrive.
type Log struct{}

func (Log) Send(_ context.Context, text string) error {
	slog.Info("notify: operator message", "text", text)
	return nil
}

func (Log) Receive(ctx context.Context, wait time.Duration) ([]string, error) {
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return nil, nil
	}
}

// Chunk splits text into pieces of at most limit runes, preferring line breaks.
func Chunk(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}

	for i, line := range strings.Split(text, "\n") {
		r := []rune(line)
		if i > 0 {
			if len(cur)+1+len(r) > limit {
				flush()
			} else {
				cur = append(cur, '\n')
			}
		}
		for len(r) > limit {
			flush()
			chunks = append(chunks, string(r[:limit]))
			r = r[limit:]
		}
		if len(cur)+len(r) > limit {
			flush()
		}
		cur = append(cur, r...)
	}
	flush()
	return chunks
}
