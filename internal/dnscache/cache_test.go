package dnscache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mailprobe/internal/dnscache"
	"github.com/optimode/mailprobe/types"
)

// mockResolver tracks how many times LookupMX was called.
type mockResolver struct {
	servers []types.MailServer
	err     error
	delay   time.Duration
	calls   atomic.Int64
}

func (m *mockResolver) LookupMX(_ context.Context, _ string) ([]types.MailServer, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.servers, m.err
}

var oneServer = []types.MailServer{{Priority: 10, Host: "mx.example.com"}}

func TestCache_BasicCaching(t *testing.T) {
	r := &mockResolver{servers: oneServer}
	c := dnscache.New(r, time.Minute)
	ctx := context.Background()

	servers, err := c.LookupMX(ctx, "example.com")
	assert.NoError(t, err)
	assert.Equal(t, oneServer, servers)
	assert.Equal(t, int64(1), r.calls.Load())

	servers, err = c.LookupMX(ctx, "example.com")
	assert.NoError(t, err)
	assert.Equal(t, oneServer, servers)
	assert.Equal(t, int64(1), r.calls.Load()) // served from cache
}

func TestCache_DifferentDomains(t *testing.T) {
	r := &mockResolver{servers: oneServer}
	c := dnscache.New(r, time.Minute)

	_, _ = c.LookupMX(context.Background(), "a.com")
	_, _ = c.LookupMX(context.Background(), "b.com")
	assert.Equal(t, int64(2), r.calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCache_TTLExpiry(t *testing.T) {
	r := &mockResolver{servers: oneServer}
	c := dnscache.New(r, 50*time.Millisecond)

	_, _ = c.LookupMX(context.Background(), "example.com")
	assert.Equal(t, int64(1), r.calls.Load())

	time.Sleep(100 * time.Millisecond)

	_, _ = c.LookupMX(context.Background(), "example.com")
	assert.Equal(t, int64(2), r.calls.Load())
}

func TestCache_Singleflight(t *testing.T) {
	r := &mockResolver{servers: oneServer, delay: 20 * time.Millisecond}
	c := dnscache.New(r, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			servers, err := c.LookupMX(context.Background(), "example.com")
			assert.NoError(t, err)
			assert.Len(t, servers, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), r.calls.Load())
}

func TestCache_CachesNoMailServer(t *testing.T) {
	r := &mockResolver{err: &types.NoMailServerError{Domain: "bad.example"}}
	c := dnscache.New(r, time.Minute)

	_, err := c.LookupMX(context.Background(), "bad.example")
	assert.ErrorIs(t, err, types.ErrNoMailServer)

	_, err = c.LookupMX(context.Background(), "bad.example")
	assert.ErrorIs(t, err, types.ErrNoMailServer)
	assert.Equal(t, int64(1), r.calls.Load())
}

func TestCache_DoesNotCacheTransientErrors(t *testing.T) {
	r := &mockResolver{err: errors.New("i/o timeout")}
	c := dnscache.New(r, time.Minute)

	_, err := c.LookupMX(context.Background(), "flaky.example")
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())

	r.err = nil
	r.servers = oneServer
	servers, err := c.LookupMX(context.Background(), "flaky.example")
	assert.NoError(t, err)
	assert.Equal(t, oneServer, servers)
	assert.Equal(t, int64(2), r.calls.Load())
}

func TestCache_ReturnsCopy(t *testing.T) {
	r := &mockResolver{servers: []types.MailServer{
		{Priority: 10, Host: "mx1.example.com"},
		{Priority: 20, Host: "mx2.example.com"},
	}}
	c := dnscache.New(r, time.Minute)

	s1, _ := c.LookupMX(context.Background(), "example.com")
	s2, _ := c.LookupMX(context.Background(), "example.com")

	s1[0].Host = "modified"
	assert.Equal(t, "mx1.example.com", s2[0].Host)
}

func TestCache_CallerContext(t *testing.T) {
	r := &mockResolver{servers: oneServer, delay: 200 * time.Millisecond}
	c := dnscache.New(r, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.LookupMX(ctx, "slow.example")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the shared lookup still completes for later callers
	servers, err := c.LookupMX(context.Background(), "slow.example")
	assert.NoError(t, err)
	assert.Equal(t, oneServer, servers)
	assert.Equal(t, int64(1), r.calls.Load())
}
