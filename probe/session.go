// Package probe runs the SMTP side of a deliverability check: one plain-text
// connection to one mail server, greeted with HELO, over which a sender and a
// recipient are declared without ever sending a message.
package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/optimode/mailprobe/types"
)

// Config configures probe sessions.
type Config struct {
	// Port is the SMTP port. Default: 25
	Port string
	// ConnectTimeout bounds the TCP connect. Default: 5s
	ConnectTimeout time.Duration
	// CommandTimeout bounds each command/reply exchange, greeting included. Default: 10s
	CommandTimeout time.Duration
	// Dial is injectable for testing. Defaults to a net.Dialer.
	Dial func(ctx context.Context, network, address string) (net.Conn, error)
}

func (c Config) withDefaults() Config {
	if c.Port == "" {
		c.Port = "25"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 10 * time.Second
	}
	if c.Dial == nil {
		d := &net.Dialer{}
		c.Dial = d.DialContext
	}
	return c
}

// Session is one live SMTP conversation. It is not safe for concurrent use.
type Session struct {
	cfg       Config
	server    types.MailServer
	conn      net.Conn
	reader    *bufio.Reader
	writer    *bufio.Writer
	greeting  Reply
	connected bool
}

// Connect dials server, reads its greeting and announces heloDomain with HELO.
// The returned session is connected; on any failure the socket is closed and
// an error is returned.
func Connect(ctx context.Context, server types.MailServer, heloDomain string, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if heloDomain == "" {
		heloDomain = "localhost"
	}
	address := net.JoinHostPort(server.Host, cfg.Port)

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	conn, err := cfg.Dial(dialCtx, "tcp", address)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}

	s := &Session{
		cfg:    cfg,
		server: server,
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
	if err := s.handshake(ctx, heloDomain); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}
	s.connected = true
	return s, nil
}

func (s *Session) handshake(ctx context.Context, heloDomain string) error {
	greeting, err := s.exchange(ctx, "")
	if err != nil {
		return &types.ProbeError{Command: "greeting", Err: err}
	}
	if greeting.Code != 220 {
		return &types.ProbeError{Command: "greeting", Code: greeting.Code, Status: greeting.Status()}
	}
	s.greeting = greeting

	reply, err := s.exchange(ctx, "HELO "+heloDomain)
	if err != nil {
		return &types.ProbeError{Command: "HELO", Err: err}
	}
	if Interpret(reply.Code) != Success {
		return &types.ProbeError{Command: "HELO", Code: reply.Code, Status: reply.Status()}
	}
	return nil
}

// Server returns the mail server this session talks to.
func (s *Session) Server() types.MailServer { return s.server }

// Greeting returns the server's 220 banner.
func (s *Session) Greeting() Reply { return s.greeting }

// Connected reports whether commands can be issued.
func (s *Session) Connected() bool { return s != nil && s.connected }

// MailFrom declares sender. Only a 250 reply succeeds; any other reply is
// returned as a *types.ProbeError carrying the server status.
func (s *Session) MailFrom(ctx context.Context, sender string) error {
	reply, err := s.command(ctx, "MAIL FROM", sender)
	if err != nil {
		return err
	}
	if Interpret(reply.Code) != Success {
		return &types.ProbeError{Command: "MAIL FROM", Code: reply.Code, Status: reply.Status()}
	}
	return nil
}

// RcptTo probes target. 250 yields Accepted and 55x yields Rejected; any other
// reply or a transport failure is a *types.ProbeError.
func (s *Session) RcptTo(ctx context.Context, target string) (types.Verdict, Reply, error) {
	reply, err := s.command(ctx, "RCPT TO", target)
	if err != nil {
		return types.VerdictUnknown, Reply{}, err
	}
	switch Interpret(reply.Code) {
	case Success:
		return types.Accepted, reply, nil
	case Rejection:
		return types.Rejected, reply, nil
	default:
		return types.VerdictUnknown, reply, &types.ProbeError{Command: "RCPT TO", Code: reply.Code, Status: reply.Status()}
	}
}

// Close sends a best-effort QUIT and closes the connection. It is safe to
// call more than once and on a nil session.
func (s *Session) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	if s.connected {
		_ = s.conn.SetDeadline(time.Now().Add(2 * time.Second))
		_, _ = s.writer.WriteString("QUIT\r\n")
		_ = s.writer.Flush()
	}
	s.connected = false
	err := s.conn.Close()
	s.conn = nil
	return err
}

// command sends "<verb>:<arg>" and returns the reply. A transport failure
// leaves the session unusable, so the connection is dropped.
func (s *Session) command(ctx context.Context, verb, arg string) (Reply, error) {
	if !s.Connected() {
		return Reply{}, types.ErrNotConnected
	}
	if strings.ContainsAny(arg, "\r\n") {
		return Reply{}, &types.ProbeError{Command: verb, Err: errors.New("argument contains a line break")}
	}

	reply, err := s.exchange(ctx, verb+":<"+arg+">")
	if err != nil {
		s.connected = false
		_ = s.conn.Close()
		s.conn = nil
		return Reply{}, &types.ProbeError{Command: verb, Err: err}
	}
	return reply, nil
}

// exchange writes line (if any) and reads one reply, bounded by the command
// timeout and by ctx. Cancelling ctx expires the connection deadline, which
// aborts the blocked read or write.
func (s *Session) exchange(ctx context.Context, line string) (Reply, error) {
	deadline := time.Now().Add(s.cfg.CommandTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn := s.conn
	if err := conn.SetDeadline(deadline); err != nil {
		return Reply{}, fmt.Errorf("set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	reply, err := s.roundTrip(line)
	if err != nil && ctx.Err() != nil {
		return Reply{}, fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return reply, err
}

func (s *Session) roundTrip(line string) (Reply, error) {
	if line != "" {
		if _, err := s.writer.WriteString(line + "\r\n"); err != nil {
			return Reply{}, err
		}
		if err := s.writer.Flush(); err != nil {
			return Reply{}, err
		}
	}
	return readReply(s.reader)
}
