package redlist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Queue is a FIFO of JSON encoded messages stored in one Redis list.
type Queue struct {
	r    Redis
	opt  Options
	name string
	key  string
}

func NewQueue(r Redis, name string, opts ...Option) (*Queue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidQueueName
	}
	opt := buildOptions(opts)
	return &Queue{
		r:    r,
		opt:  opt,
		name: name,
		key:  opt.Prefix + ":" + name,
	}, nil
}

func (q *Queue) Name() string { return q.name }

// Key is the Redis list holding the queue.
func (q *Queue) Key() string { return q.key }

// Send enqueues body and returns the new message ID.
func (q *Queue) Send(ctx context.Context, body []byte, props map[string]string) (string, error) {
	m := &Message{Body: body, Properties: props}
	if err := q.SendMessage(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

// SendMessage enqueues m, filling in ID and CreatedAt when unset.
func (q *Queue) SendMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	b, err := json.Marshal(wireMessage{
		ID:          m.ID,
		Body:        m.Body,
		Properties:  m.Properties,
		Headers:     m.Headers,
		CreatedAtMs: m.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	_, err = q.r.Push(ctx, q.key, string(b))
	return err
}

// Receive returns the oldest message or (nil, nil) when the queue is empty.
// A positive wait blocks for up to wait (rounded up to whole seconds).
func (q *Queue) Receive(ctx context.Context, wait time.Duration) (*Message, error) {
	var (
		res *Result
		err error
	)
	if wait > 0 {
		res, err = q.r.BlockingPop(ctx, []string{q.key}, wait)
	} else {
		res, err = q.r.Pop(ctx, q.key)
	}
	if err != nil || res == nil {
		return nil, err
	}
	return q.decode(res)
}

// Purge drops every message in the queue.
func (q *Queue) Purge(ctx context.Context) error {
	return q.r.Delete(ctx, q.key)
}

func (q *Queue) decode(res *Result) (*Message, error) {
	var w wireMessage
	if err := json.Unmarshal([]byte(res.Value), &w); err != nil {
		q.opt.Logger.Warn("dropping malformed message",
			zap.String("queue", q.name),
			zap.String("key", res.Key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, res.Key, err)
	}
	m := &Message{
		ID:         w.ID,
		Body:       w.Body,
		Properties: w.Properties,
		Headers:    w.Headers,
	}
	if w.CreatedAtMs > 0 {
		m.CreatedAt = time.UnixMilli(w.CreatedAtMs)
	}
	if m.Properties == nil {
		m.Properties = map[string]string{}
	}
	if m.Headers == nil {
		m.Headers = map[string]string{}
	}
	return m, nil
}

// ReceiveAny blocks for up to wait on all queues at once and returns the
// queue that delivered together with its message. All queues must share
// the same Redis. A non-positive wait is treated as one second.
// It returns (nil, nil, nil) when nothing arrived.
func ReceiveAny(ctx context.Context, wait time.Duration, queues ...*Queue) (*Queue, *Message, error) {
	if len(queues) == 0 {
		return nil, nil, ErrNoQueues
	}
	byKey := make(map[string]*Queue, len(queues))
	keys := make([]string, 0, len(queues))
	for _, q := range queues {
		if _, dup := byKey[q.key]; dup {
			continue
		}
		byKey[q.key] = q
		keys = append(keys, q.key)
	}
	if wait <= 0 {
		wait = time.Second
	}

	res, err := queues[0].r.BlockingPop(ctx, keys, wait)
	if err != nil || res == nil {
		return nil, nil, err
	}
	q, ok := byKey[res.Key]
	if !ok {
		return nil, nil, fmt.Errorf("redlist: reply from unexpected key %q", res.Key)
	}
	m, err := q.decode(res)
	if err != nil {
		return q, nil, err
	}
	return q, m, nil
}
