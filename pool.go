package redlist

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler processes one message taken from queueName.
type Handler func(ctx context.Context, queueName string, msg *Message) error

// WorkerPool consumes a fixed set of queues with several workers.
// Every worker owns its own Redis session, created by the factory, since a
// session serves one caller at a time.
type WorkerPool struct {
	factory      func() Redis
	queueNames   []string
	prefix       string
	handler      Handler
	workers      int
	pollInterval time.Duration
	errBackoff   time.Duration
	logger       *zap.Logger

	mu    sync.RWMutex
	stats map[string]int64

	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type PoolOption func(*WorkerPool)

func WithWorkerCount(n int) PoolOption {
	return func(p *WorkerPool) { p.workers = n }
}

// WithPollInterval sets how long a worker blocks on its queues before
// checking for shutdown. BRPOP has second resolution.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *WorkerPool) { p.pollInterval = d }
}

// WithPoolPrefix sets the key namespace, matching WithPrefix on the producer side.
func WithPoolPrefix(prefix string) PoolOption {
	return func(p *WorkerPool) { p.prefix = prefix }
}

func WithPoolLogger(l *zap.Logger) PoolOption {
	return func(p *WorkerPool) { p.logger = l }
}

// WithErrorBackoff sets the pause after a failed receive.
func WithErrorBackoff(d time.Duration) PoolOption {
	return func(p *WorkerPool) { p.errBackoff = d }
}

func NewWorkerPool(
	factory func() Redis,
	queueNames []string,
	handler Handler,
	opts ...PoolOption,
) *WorkerPool {
	p := &WorkerPool{
		factory:      factory,
		queueNames:   queueNames,
		prefix:       "redlist",
		handler:      handler,
		workers:      4,
		pollInterval: time.Second,
		errBackoff:   500 * time.Millisecond,
		stats:        make(map[string]int64),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// AdapterFactory returns a factory building a new Adapter for cfg on each call.
func AdapterFactory(cfg Config, opts ...Option) func() Redis {
	return func() Redis { return NewAdapter(cfg, opts...) }
}

func (p *WorkerPool) Start(ctx context.Context) error {
	if len(p.queueNames) == 0 {
		return ErrNoQueues
	}
	if p.workers < 1 {
		p.workers = 1
	}
	if p.pollInterval <= 0 {
		p.pollInterval = time.Second
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		r := p.factory()
		queues := make([]*Queue, 0, len(p.queueNames))
		for _, name := range p.queueNames {
			q, err := NewQueue(r, name, WithPrefix(p.prefix), WithLogger(p.logger))
			if err != nil {
				cancel()
				p.wg.Wait()
				return err
			}
			queues = append(queues, q)
		}
		p.wg.Add(1)
		go p.worker(runCtx, i, r, queues)
	}
	return nil
}

// Stop cancels the workers and waits for them. A worker blocked on its
// queues returns within one poll interval.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	p.wg.Wait()
}

func (p *WorkerPool) worker(ctx context.Context, id int, r Redis, queues []*Queue) {
	defer p.wg.Done()
	defer func() {
		if err := r.Disconnect(); err != nil {
			p.logger.Warn("worker disconnect failed", zap.Int("worker", id), zap.Error(err))
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		q, msg, err := ReceiveAny(ctx, p.pollInterval, queues...)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrMalformedMessage) {
				continue
			}
			p.logger.Warn("receive failed", zap.Int("worker", id), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.errBackoff):
			}
			continue
		}
		if msg == nil {
			continue
		}

		if err := p.handler(ctx, q.Name(), msg); err != nil {
			p.logger.Warn("handler failed",
				zap.Int("worker", id),
				zap.String("queue", q.Name()),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
		p.mu.Lock()
		p.stats[q.Name()]++
		p.mu.Unlock()
	}
}

// Stats returns how many messages each queue has delivered to the handler.
func (p *WorkerPool) Stats() map[string]int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := make(map[string]int64, len(p.stats))
	for name, n := range p.stats {
		stats[name] = n
	}
	return stats
}
