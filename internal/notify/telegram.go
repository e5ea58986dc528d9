package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// Telegram talks to the Bot API. Send and Receive may run concurrently.
type Telegram struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  int64
	header  string

	mu     sync.Mutex
	offset int64
}

type TelegramOption func(*Telegram)

// WithBaseURL points the client at a different API host (tests).
func WithBaseURL(u string) TelegramOption {
	return func(t *Telegram) { t.baseURL = u }
}

// WithHeader prefixes every outgoing message, e.g. with the process id.
func WithHeader(h string) TelegramOption {
	return func(t *Telegram) { t.header = h }
}

func NewTelegram(token string, chatID int64, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		client:  &http.Client{},
		baseURL: telegramAPI,
		token:   token,
		chatID:  chatID,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

func (t *Telegram) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
}

// Send delivers text, split into several messages when it is too long.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if t.header != "" {
		text = t.header + "\n" + text
	}
	for _, chunk := range Chunk(text, MaxMessageLen) {
		if err := t.sendOne(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *Telegram) sendOne(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]any{"chat_id": t.chatID, "text": text})
	if err != nil {
		return fmt.Errorf("telegram encode message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = t.do(req)
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

// Receive long-polls getUpdates and returns texts sent in the configured chat.
func (t *Telegram) Receive(ctx context.Context, wait time.Duration) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := url.Values{}
	q.Set("offset", strconv.FormatInt(t.offset, 10))
	q.Set("timeout", strconv.Itoa(int(wait.Seconds())))

	ctx, cancel := context.WithTimeout(ctx, wait+10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates request: %w", err)
	}

	raw, err := t.do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}

	var updates []update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("telegram getUpdates parse: %w", err)
	}

	var texts []string
	for _, u := range updates {
		if u.UpdateID >= t.offset {
			t.offset = u.UpdateID + 1
		}
		if u.Message == nil || u.Message.Chat.ID != t.chatID || u.Message.Text == "" {
			continue
		}
		texts = append(texts, u.Message.Text)
	}
	return texts, nil
}

func (t *Telegram) do(req *http.Request) (json.RawMessage, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var r apiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	if !r.OK {
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, r.Description)
	}
	return r.Result, nil
}
