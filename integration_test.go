//go:build redisunix

package redlist_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aura-studio/redlist"
)

func unixSocketFromEnv(t *testing.T) string {
	t.Helper()

	path := strings.TrimSpace(os.Getenv("REDLIST_UNIX_SOCKET"))
	if path == "" {
		t.Skip("set REDLIST_UNIX_SOCKET to run unix socket integration tests")
	}
	return path
}

func newUnixAdapter(t *testing.T, path string, persistent bool) *redlist.Adapter {
	t.Helper()

	cfg, err := redlist.ParseDSN(fmt.Sprintf("unix://%s?database=1&persistent=%t&persistent_id=%s", path, persistent, t.Name()))
	require.NoError(t, err)
	a := redlist.NewAdapter(cfg)
	t.Cleanup(func() { _ = a.Disconnect() })
	return a
}

func TestUnixSocket_PushPopBlockingPop(t *testing.T) {
	path := unixSocketFromEnv(t)
	ctx := context.Background()
	key := fmt.Sprintf("redlist_it_%d", time.Now().UnixNano())

	consumer := newUnixAdapter(t, path, false)
	producer := newUnixAdapter(t, path, false)
	require.NoError(t, consumer.Connect(ctx))
	t.Cleanup(func() { _ = producer.Delete(context.Background(), key) })

	_, err := producer.Push(ctx, key, "first")
	require.NoError(t, err)
	res, err := consumer.Pop(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, "first", res.Value)

	go func() {
		time.Sleep(300 * time.Millisecond)
		_, _ = producer.Push(ctx, key, "second")
	}()
	res, err = consumer.BlockingPop(ctx, []string{key}, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, key, res.Key)
	require.Equal(t, "second", res.Value)

	start := time.Now()
	res, err = consumer.BlockingPop(ctx, []string{key}, time.Second)
	require.NoError(t, err)
	require.Nil(t, res)
	require.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestUnixSocket_Persistent(t *testing.T) {
	path := unixSocketFromEnv(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = redlist.ClosePersistentSessions() })

	a := newUnixAdapter(t, path, true)
	require.NoError(t, a.Connect(ctx))
	require.NoError(t, a.Disconnect())
	require.NoError(t, a.Disconnect())

	b := newUnixAdapter(t, path, true)
	key := fmt.Sprintf("redlist_it_p_%d", time.Now().UnixNano())
	n, err := b.Push(ctx, key, "v")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.NoError(t, b.Delete(ctx, key))
}
