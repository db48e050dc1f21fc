package mailprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/optimode/mailprobe/internal/dnscache"
	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/mx"
	"github.com/optimode/mailprobe/probe"
)

// AddressValidator is an optional syntax/reputation check run before any
// DNS or SMTP traffic. A false result makes Verify fail with ErrInvalid.
type AddressValidator interface {
	Validate(ctx context.Context, address string) (bool, error)
}

// DomainBlacklist is an optional list of domains that must not be probed.
// A listed domain makes Verify fail with ErrBlacklisted.
type DomainBlacklist interface {
	Contains(ctx context.Context, domain string) (bool, error)
}

// Verifier is the main fluent builder struct.
// Instantiate with the New() function. A Verifier holds no per-verification
// state and is safe for concurrent use once configured.
type Verifier struct {
	cfg       Config
	err       error // configuration error, returned on Verify()
	helo      string
	validator AddressValidator
	blacklist DomainBlacklist
	resolver  mx.Resolver
	dial      func(ctx context.Context, network, address string) (net.Conn, error)
	logger    *zap.Logger
}

// New creates a Verifier. Unset Config fields take their defaults; an
// unusable SenderAddress is reported by Verify as ErrInvalidConfig.
func New(cfg Config) *Verifier {
	cfg = cfg.withDefaults()
	v := &Verifier{
		cfg:    cfg,
		helo:   cfg.HeloDomain,
		logger: zap.NewNop(),
		resolver: mx.NewDNSResolver(mx.ResolverConfig{
			Nameservers: cfg.Nameservers,
			Timeout:     cfg.DNSTimeout,
		}),
	}

	sender := parse.NewEmail(cfg.SenderAddress)
	if !sender.Valid {
		v.err = fmt.Errorf("%w: sender address %q has no domain", ErrInvalidConfig, cfg.SenderAddress)
		return v
	}
	// the HELO identity is the verifier's own domain, never the target's
	if v.helo == "" {
		v.helo = sender.Domain
	}
	return v
}

// WithValidator enables the address check of step one. Pass nil to disable it.
func (v *Verifier) WithValidator(av AddressValidator) *Verifier {
	v.validator = av
	return v
}

// WithBlacklist enables the domain blacklist. Pass nil to disable it.
func (v *Verifier) WithBlacklist(bl DomainBlacklist) *Verifier {
	v.blacklist = bl
	return v
}

// WithResolver replaces the DNS resolver, e.g. with a fixed table in tests.
// Call it before WithMXCache, which wraps the current resolver.
func (v *Verifier) WithResolver(r mx.Resolver) *Verifier {
	v.resolver = r
	return v
}

// WithMXCache caches MX lookups for ttl, deduplicating concurrent lookups of
// one domain. Callers always receive their own copy of the server list.
func (v *Verifier) WithMXCache(ttl time.Duration) *Verifier {
	if ttl > 0 {
		v.resolver = dnscache.New(v.resolver, ttl)
	}
	return v
}

// WithDialer replaces the TCP dialer used for SMTP connections.
func (v *Verifier) WithDialer(dial func(ctx context.Context, network, address string) (net.Conn, error)) *Verifier {
	v.dial = dial
	return v
}

// WithLogger sets the logger. Verification steps are logged at debug level.
func (v *Verifier) WithLogger(l *zap.Logger) *Verifier {
	if l == nil {
		l = zap.NewNop()
	}
	v.logger = l
	return v
}

// Verify probes address. A nil error comes with an Accepted or Rejected
// verdict. Every other outcome is an error matching one of the Err* values;
// the Result then still carries whatever server reply was received.
//
// Steps, each ending the verification on failure:
// validator, blacklist, MX resolution, connection to the first MX candidate
// that answers (in priority order, each tried once), MAIL FROM, RCPT TO.
// The connection is closed before Verify returns.
func (v *Verifier) Verify(ctx context.Context, address string) (Result, error) {
	if v.err != nil {
		return Result{}, v.err
	}

	email := parse.NewEmail(address)
	res := Result{Email: email.Raw}
	log := v.logger.With(zap.String("email", email.Raw))

	if v.validator != nil {
		ok, err := v.validator.Validate(ctx, email.Raw)
		if err != nil {
			return res, fmt.Errorf("validate %q: %w", email.Raw, err)
		}
		if !ok {
			return res, fmt.Errorf("%w: %s", ErrInvalid, email.Raw)
		}
	}

	if v.blacklist != nil && email.Domain != "" {
		listed, err := v.blacklist.Contains(ctx, email.Domain)
		if err != nil {
			return res, fmt.Errorf("blacklist lookup %s: %w", email.Domain, err)
		}
		if listed {
			return res, fmt.Errorf("%w: %s", ErrBlacklisted, email.Domain)
		}
	}

	servers, err := v.resolver.LookupMX(ctx, email.Domain)
	if err != nil {
		return res, err
	}
	if len(servers) == 0 {
		return res, &NoMailServerError{Domain: email.Domain}
	}
	log.Debug("mx resolved", zap.String("domain", email.Domain), zap.Int("servers", len(servers)))

	session, err := v.connect(ctx, mx.NewQueue(servers), log)
	if err != nil {
		return res, err
	}
	defer func() { _ = session.Close() }()
	res.MXHost = session.Server().Host

	if err := session.MailFrom(ctx, v.cfg.SenderAddress); err != nil {
		res.setReply(err)
		return res, err
	}

	verdict, reply, err := session.RcptTo(ctx, email.Address)
	res.SMTPCode, res.Status = reply.Code, reply.Status()
	if err != nil {
		res.setReply(err)
		return res, err
	}
	res.Verdict = verdict

	log.Debug("verified",
		zap.Stringer("verdict", verdict),
		zap.String("mx", res.MXHost),
		zap.Int("code", res.SMTPCode))
	return res, nil
}

// connect takes candidates off the queue until one completes the greeting
// and HELO. A failed candidate is dropped and never retried.
func (v *Verifier) connect(ctx context.Context, queue *mx.Queue, log *zap.Logger) (*probe.Session, error) {
	cfg := probe.Config{
		Port:           v.cfg.Port,
		ConnectTimeout: v.cfg.ConnectTimeout,
		CommandTimeout: v.cfg.CommandTimeout,
		Dial:           v.dial,
	}

	var errs error
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		server, ok := queue.Next()
		if !ok {
			break
		}

		session, err := probe.Connect(ctx, server, v.helo, cfg)
		if err == nil {
			log.Debug("connected", zap.String("mx", server.Host), zap.Uint16("priority", server.Priority))
			return session, nil
		}
		log.Debug("mail server unavailable",
			zap.String("mx", server.Host),
			zap.Uint16("priority", server.Priority),
			zap.Int("remaining", queue.Len()),
			zap.Error(err))
		errs = multierr.Append(errs, err)
	}

	if errs == nil {
		return nil, ErrOutOfMailServers
	}
	// %v: the connect failures are context, not kinds callers should match on
	return nil, fmt.Errorf("%w: %v", ErrOutOfMailServers, errs)
}

func (r *Result) setReply(err error) {
	var perr *ProbeError
	if errors.As(err, &perr) && perr.Code != 0 {
		r.SMTPCode, r.Status = perr.Code, perr.Status
	}
}

// VerifyMany verifies addresses concurrently, each verification on its own
// connection. The result order matches the input order; a verification
// error is reported in that Result's Err field. The returned error is only
// set for configuration errors or when ctx ends before all are done.
// Addresses are processed grouped by domain, which keeps an MX cache (see
// WithMXCache) effective.
func (v *Verifier) VerifyMany(ctx context.Context, addresses []string, opts ...ConcurrencyOptions) ([]Result, error) {
	if v.err != nil {
		return nil, v.err
	}

	workers := 5
	if len(opts) > 0 && opts[0].Workers > 0 {
		workers = opts[0].Workers
	}

	type job struct {
		idx     int
		address string
		domain  string
	}
	jobs := make([]job, len(addresses))
	for i, a := range addresses {
		jobs[i] = job{idx: i, address: a, domain: parse.DomainOf(a)}
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].domain < jobs[j].domain
	})

	queue := make(chan job)
	go func() {
		defer close(queue)
		for _, j := range jobs {
			select {
			case queue <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make([]Result, len(addresses))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				res, err := v.Verify(ctx, j.address)
				if err != nil {
					res.Err = err.Error()
				}
				results[j.idx] = res
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
