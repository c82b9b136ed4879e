package redlist

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// persistentPool keeps sessions opened with Config.Persistent alive across
// adapter lifetimes. Adapters with an equal persistent key share one client.
type persistentPool struct {
	mu       sync.Mutex
	sessions map[string]*persistentSession
}

type persistentSession struct {
	client *redis.Client
	refs   int
}

var persistent = &persistentPool{sessions: make(map[string]*persistentSession)}

func (p *persistentPool) acquire(ctx context.Context, cfg Config) (redis.UniversalClient, func() error, error) {
	key := cfg.persistentKey()

	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[key]
	if !ok {
		c := redis.NewClient(cfg.Options())
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return nil, nil, err
		}
		s = &persistentSession{client: c}
		p.sessions[key] = s
	}
	s.refs++

	var once sync.Once
	release := func() error {
		once.Do(func() {
			p.mu.Lock()
			s.refs--
			p.mu.Unlock()
		})
		return nil
	}
	return s.client, release, nil
}

func (p *persistentPool) closeAll() error {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = make(map[string]*persistentSession)
	p.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *persistentPool) refs(cfg Config) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[cfg.persistentKey()]; ok {
		return s.refs
	}
	return 0
}

// ClosePersistentSessions closes every persistent session of the process.
// Adapters still holding one will fail their next command with a ServerError;
// call it on shutdown.
func ClosePersistentSessions() error {
	return persistent.closeAll()
}
