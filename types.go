package redlist

import (
	"context"
	"time"
)

// Redis is the list capability a queue needs from the store.
// *Adapter implements it.
type Redis interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Push(ctx context.Context, key, value string) (int64, error)
	BlockingPop(ctx context.Context, keys []string, timeout time.Duration) (*Result, error)
	Pop(ctx context.Context, key string) (*Result, error)
	Delete(ctx context.Context, key string) error
}

// Result is a value taken from the list named Key.
type Result struct {
	Key   string
	Value string
}

// Message is a queue message.
type Message struct {
	ID         string
	Body       []byte
	Properties map[string]string
	Headers    map[string]string
	CreatedAt  time.Time
}

// wireMessage is the JSON layout stored in the list.
type wireMessage struct {
	ID          string            `json:"id"`
	Body        []byte            `json:"body"`
	Properties  map[string]string `json:"properties,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	CreatedAtMs int64             `json:"created_at_ms"`
}
