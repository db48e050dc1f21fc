package check

import (
	"context"
	"strings"

	"github.com/optimode/mailprobe/internal/disposable"
	"github.com/optimode/mailprobe/internal/parse"
)

// Blacklist reports whether mail to a domain must not be probed.
type Blacklist interface {
	Contains(ctx context.Context, domain string) (bool, error)
}

// DomainList is a fixed, case-insensitive set of domains. Only exact
// matches count: listing example.com does not cover mail.example.com.
type DomainList struct {
	domains map[string]struct{}
}

// NewDomainList creates a list of the given domains. Unicode domains are
// stored in their ASCII form, so either spelling matches.
func NewDomainList(domains ...string) *DomainList {
	l := &DomainList{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		if key := normalizeDomain(d); key != "" {
			l.domains[key] = struct{}{}
		}
	}
	return l
}

func (l *DomainList) Contains(_ context.Context, domain string) (bool, error) {
	_, ok := l.domains[normalizeDomain(domain)]
	return ok, nil
}

// Len returns the number of listed domains.
func (l *DomainList) Len() int { return len(l.domains) }

// DisposableList matches the domains of known throwaway mailbox providers,
// subdomains included.
type DisposableList struct{}

func NewDisposableList() DisposableList { return DisposableList{} }

func (DisposableList) Contains(_ context.Context, domain string) (bool, error) {
	return disposable.IsDisposable(normalizeDomain(domain)), nil
}

// AnyBlacklist combines lists. A domain is contained when any list contains
// it; lists are consulted in order and the first error stops the lookup.
type AnyBlacklist []Blacklist

func (a AnyBlacklist) Contains(ctx context.Context, domain string) (bool, error) {
	for _, l := range a {
		ok, err := l.Contains(ctx, domain)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func normalizeDomain(domain string) string {
	ascii, _, ok := parse.Domain(strings.TrimSpace(domain))
	if !ok {
		return ""
	}
	return ascii
}
