// Package disposable knows the domains of throwaway mailbox providers.
package disposable

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed list.txt
var rawList string

// domains is parsed on first use: one domain per line, '#' starts a comment.
var domains = sync.OnceValue(func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(rawList, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.ToLower(strings.TrimSpace(line))
		if line != "" {
			set[line] = struct{}{}
		}
	}
	return set
})

// IsDisposable reports whether domain, or any parent domain of it, is a
// known disposable provider.
func IsDisposable(domain string) bool {
	set := domains()
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	for domain != "" {
		if _, ok := set[domain]; ok {
			return true
		}
		i := strings.IndexByte(domain, '.')
		if i < 0 {
			break
		}
		domain = domain[i+1:]
	}
	return false
}

// Len returns the number of listed domains.
func Len() int { return len(domains()) }
