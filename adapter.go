package redlist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type state int

const (
	stateDisconnected state = iota
	stateConnected
)

// openFunc opens a verified session and returns the function releasing it.
type openFunc func(ctx context.Context, cfg Config) (redis.UniversalClient, func() error, error)

// Adapter runs list commands against one lazily opened session.
// It is not safe for concurrent callers; use one Adapter per goroutine.
type Adapter struct {
	cfg    Config
	logger *zap.Logger
	inst   *instruments
	open   openFunc

	mu      sync.Mutex
	state   state
	session redis.UniversalClient
	release func() error
}

var _ Redis = (*Adapter)(nil)

// NewAdapter does not validate cfg or touch the network; both happen on
// the first Connect or command.
func NewAdapter(cfg Config, opts ...Option) *Adapter {
	opt := buildOptions(opts)
	return &Adapter{
		cfg:    cfg,
		logger: opt.Logger.With(zap.String("component", "redlist")),
		inst:   newInstruments(opt.Meter),
		open:   openSession,
	}
}

func openSession(ctx context.Context, cfg Config) (redis.UniversalClient, func() error, error) {
	if cfg.Persistent {
		return persistent.acquire(ctx, cfg)
	}
	c := redis.NewClient(cfg.Options())
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, c.Close, nil
}

func (a *Adapter) Config() Config { return a.cfg }

// Connected reports whether a session is held.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateConnected
}

// Connect opens the session unless one is already held.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.connectLocked(ctx)
	return err
}

func (a *Adapter) connectLocked(ctx context.Context) (redis.UniversalClient, error) {
	if a.state == stateConnected {
		return a.session, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	session, release, err := a.open(ctx, a.cfg)
	a.inst.record(ctx, "connect", start, err)
	if err != nil {
		a.logger.Warn("connect failed",
			zap.String("network", a.cfg.network()),
			zap.String("addr", a.cfg.addr()),
			zap.Error(err),
		)
		return nil, serverError("connect", err)
	}

	a.session, a.release, a.state = session, release, stateConnected
	a.logger.Debug("connected",
		zap.String("network", a.cfg.network()),
		zap.String("addr", a.cfg.addr()),
		zap.Bool("persistent", a.cfg.Persistent),
	)
	return session, nil
}

// Disconnect releases the session. It is a no-op when none is held.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateDisconnected {
		return nil
	}

	release := a.release
	a.session, a.release, a.state = nil, nil, stateDisconnected

	if err := release(); err != nil && !errors.Is(err, redis.ErrClosed) {
		a.logger.Warn("disconnect failed", zap.Error(err))
		return serverError("close", err)
	}
	a.logger.Debug("disconnected", zap.Bool("persistent", a.cfg.Persistent))
	return nil
}

func (a *Adapter) client(ctx context.Context) (redis.UniversalClient, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connectLocked(ctx)
}

func (a *Adapter) fail(op string, err error) error {
	a.logger.Warn("command failed", zap.String("command", op), zap.Error(err))
	return serverError(op, err)
}

// Push adds value at the head of the list and returns the new length.
func (a *Adapter) Push(ctx context.Context, key, value string) (int64, error) {
	c, err := a.client(ctx)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	n, err := c.LPush(ctx, key, value).Result()
	a.inst.record(ctx, "lpush", start, err)
	if err != nil {
		return 0, a.fail("lpush", err)
	}
	return n, nil
}

// BlockingPop waits up to timeout for any of keys to hold a value and takes
// it from the tail. It returns (nil, nil) when the timeout elapses.
// A zero timeout blocks until a value arrives. BRPOP counts in whole
// seconds, so shorter timeouts are rounded up.
func (a *Adapter) BlockingPop(ctx context.Context, keys []string, timeout time.Duration) (*Result, error) {
	c, err := a.client(ctx)
	if err != nil {
		return nil, err
	}
	if timeout < 0 {
		timeout = 0
	}
	if rem := timeout % time.Second; rem != 0 {
		timeout += time.Second - rem
	}

	start := time.Now()
	res, err := c.BRPop(ctx, timeout, keys...).Result()
	if err == redis.Nil {
		a.inst.record(ctx, "brpop", start, nil)
		return nil, nil
	}
	a.inst.record(ctx, "brpop", start, err)
	if err != nil {
		return nil, a.fail("brpop", err)
	}
	// BRPOP replies [key, value].
	if len(res) != 2 {
		return nil, nil
	}
	return &Result{Key: res[0], Value: res[1]}, nil
}

// Pop takes the oldest value of the list, or returns (nil, nil) when it is empty.
func (a *Adapter) Pop(ctx context.Context, key string) (*Result, error) {
	c, err := a.client(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	v, err := c.RPop(ctx, key).Result()
	if err == redis.Nil {
		a.inst.record(ctx, "rpop", start, nil)
		return nil, nil
	}
	a.inst.record(ctx, "rpop", start, err)
	if err != nil {
		return nil, a.fail("rpop", err)
	}
	return &Result{Key: key, Value: v}, nil
}

// Delete removes the list. Deleting a missing key is not an error.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	c, err := a.client(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.Del(ctx, key).Err()
	a.inst.record(ctx, "del", start, err)
	if err != nil {
		return a.fail("del", err)
	}
	return nil
}
