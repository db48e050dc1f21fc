// Package mx discovers the mail servers of a domain and hands them out
// one candidate at a time, most preferred first.
package mx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/optimode/mailprobe/types"
)

// Resolver returns the mail servers of a domain ordered by priority.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]types.MailServer, error)
}

const (
	defaultResolvConf = "/etc/resolv.conf"
	fallbackServer    = "8.8.8.8:53"
)

// ResolverConfig is the DNSResolver configuration.
type ResolverConfig struct {
	// Nameservers are tried in order. Entries without a port use 53.
	// Empty means the servers from /etc/resolv.conf.
	Nameservers []string
	// Timeout bounds each DNS exchange. Default: 5s
	Timeout time.Duration
}

// RcodeError is returned when a nameserver answers an MX query with a
// failure other than NXDOMAIN (SERVFAIL, REFUSED, ...).
type RcodeError struct {
	Domain string
	Rcode  int
}

func (e *RcodeError) Error() string {
	return fmt.Sprintf("mx lookup %s: %s", e.Domain, dns.RcodeToString[e.Rcode])
}

// exchangeFunc sends one DNS message over network ("udp" or "tcp") to server.
type exchangeFunc func(ctx context.Context, m *dns.Msg, network, server string) (*dns.Msg, error)

// DNSResolver queries MX records directly so that NXDOMAIN can be told apart
// from other failures and equal-priority records keep their answer order.
type DNSResolver struct {
	nameservers []string
	timeout     time.Duration
	exchange    exchangeFunc
}

// NewDNSResolver creates a resolver from cfg.
func NewDNSResolver(cfg ResolverConfig) *DNSResolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	servers := cfg.Nameservers
	if len(servers) == 0 {
		servers = systemNameservers(defaultResolvConf)
	}

	r := &DNSResolver{timeout: cfg.Timeout}
	for _, s := range servers {
		r.nameservers = append(r.nameservers, withPort(s))
	}
	r.exchange = func(ctx context.Context, m *dns.Msg, network, server string) (*dns.Msg, error) {
		c := &dns.Client{Net: network, Timeout: r.timeout}
		in, _, err := c.ExchangeContext(ctx, m, server)
		return in, err
	}
	return r
}

// Nameservers returns the servers queried, in order.
func (r *DNSResolver) Nameservers() []string {
	return append([]string(nil), r.nameservers...)
}

// LookupMX returns the mail servers of domain sorted by ascending priority.
// An empty domain yields no servers and no error. A domain that does not
// exist yields a *types.NoMailServerError. Null MX records are skipped.
func (r *DNSResolver) LookupMX(ctx context.Context, domain string) ([]types.MailServer, error) {
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		return nil, nil
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)

	resp, err := r.query(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("mx lookup %s: %w", domain, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &types.NoMailServerError{Domain: domain}
	default:
		return nil, &RcodeError{Domain: domain, Rcode: resp.Rcode}
	}

	return servers(resp.Answer), nil
}

// query asks each nameserver in turn until one answers.
func (r *DNSResolver) query(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	if len(r.nameservers) == 0 {
		return nil, errors.New("no nameservers configured")
	}

	var lastErr error
	for _, ns := range r.nameservers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := r.exchangeOnce(ctx, msg, "udp", ns)
		if err == nil && resp.Truncated {
			resp, err = r.exchangeOnce(ctx, msg, "tcp", ns)
		}
		if err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func (r *DNSResolver) exchangeOnce(ctx context.Context, msg *dns.Msg, network, ns string) (*dns.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.exchange(ctx, msg, network, ns)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", network, ns, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%s %s: empty response", network, ns)
	}
	return resp, nil
}

// servers converts MX answers into mail servers, stable-sorted by priority.
func servers(answer []dns.RR) []types.MailServer {
	var out []types.MailServer
	for _, rr := range answer {
		mx, ok := rr.(*dns.MX)
		if !ok {
			continue
		}
		host := strings.TrimSuffix(mx.Mx, ".")
		if host == "" {
			// null MX (RFC 7505): the domain accepts no mail
			continue
		}
		out = append(out, types.MailServer{Priority: mx.Preference, Host: host})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

func systemNameservers(path string) []string {
	cfg, err := dns.ClientConfigFromFile(path)
	if err != nil || len(cfg.Servers) == 0 {
		return []string{fallbackServer}
	}
	out := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		out = append(out, net.JoinHostPort(s, cfg.Port))
	}
	return out
}

func withPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), "53")
}
