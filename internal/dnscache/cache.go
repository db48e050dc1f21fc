// Package dnscache provides a thread-safe, TTL-based cache in front of an MX
// resolver, with singleflight deduplication of concurrent lookups for the
// same domain.
package dnscache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/optimode/mailprobe/types"
)

// Resolver is the lookup being cached (an mx.Resolver).
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]types.MailServer, error)
}

// Cache is a thread-safe MX lookup cache.
// Successful answers and nonexistent domains are cached for the TTL; any
// other error is handed to the callers waiting on that lookup and then
// forgotten, so the next call asks again.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	ttl      time.Duration
	resolver Resolver
	now      func() time.Time
}

type entry struct {
	servers []types.MailServer
	err     error
	expires time.Time
	done    chan struct{} // closed when the lookup is complete
}

// New creates a cache over r keeping answers for ttl.
func New(r Resolver, ttl time.Duration) *Cache {
	return &Cache{
		entries:  make(map[string]*entry),
		ttl:      ttl,
		resolver: r,
		now:      time.Now,
	}
}

// LookupMX returns the mail servers for domain, from the cache when possible.
// Callers stop waiting when their own ctx ends; the shared lookup itself is
// not cancelled by any single caller.
func (c *Cache) LookupMX(ctx context.Context, domain string) ([]types.MailServer, error) {
	c.mu.Lock()
	if e, ok := c.entries[domain]; ok {
		select {
		case <-e.done:
			if c.now().Before(e.expires) {
				c.mu.Unlock()
				return copyServers(e.servers), e.err
			}
			// expired, fall through to refresh
		default:
			c.mu.Unlock()
			return wait(ctx, e)
		}
	}

	e := &entry{done: make(chan struct{})}
	c.entries[domain] = e
	c.mu.Unlock()

	go c.fill(context.WithoutCancel(ctx), domain, e)
	return wait(ctx, e)
}

func (c *Cache) fill(ctx context.Context, domain string, e *entry) {
	servers, err := c.resolver.LookupMX(ctx, domain)

	c.mu.Lock()
	e.servers, e.err = servers, err
	e.expires = c.now().Add(c.ttl)
	if err != nil && !errors.Is(err, types.ErrNoMailServer) {
		if c.entries[domain] == e {
			delete(c.entries, domain)
		}
	}
	c.mu.Unlock()
	close(e.done)
}

func wait(ctx context.Context, e *entry) ([]types.MailServer, error) {
	select {
	case <-e.done:
		return copyServers(e.servers), e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of cached domains (for diagnostics).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// copyServers keeps callers from mutating cached data.
func copyServers(servers []types.MailServer) []types.MailServer {
	if servers == nil {
		return nil
	}
	return append([]types.MailServer(nil), servers...)
}
