package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid is returned when the configured address validator rejects an address.
	ErrInvalid = errors.New("mailprobe: invalid address")

	// ErrBlacklisted is returned when the address domain is on the configured blacklist.
	ErrBlacklisted = errors.New("mailprobe: domain is blacklisted")

	// ErrNoMailServer is returned when a domain has no usable MX record or does not exist.
	ErrNoMailServer = errors.New("mailprobe: no mail server")

	// ErrOutOfMailServers is returned when every MX candidate failed to connect.
	ErrOutOfMailServers = errors.New("mailprobe: unable to connect to any mail server")

	// ErrNotConnected is returned when an SMTP command is issued without a live session.
	ErrNotConnected = errors.New("mailprobe: not connected")

	// ErrProbeFailure is matched by every *ProbeError.
	ErrProbeFailure = errors.New("mailprobe: probe failure")

	// ErrInvalidConfig is returned when the verifier configuration cannot be used.
	ErrInvalidConfig = errors.New("mailprobe: invalid configuration")
)

// NoMailServerError reports a domain without mail servers.
type NoMailServerError struct {
	Domain string
}

func (e *NoMailServerError) Error() string {
	if e.Domain == "" {
		return ErrNoMailServer.Error()
	}
	return fmt.Sprintf("%s for %s", ErrNoMailServer, e.Domain)
}

func (e *NoMailServerError) Unwrap() error { return ErrNoMailServer }

// ProbeError reports an unexpected SMTP reply or a failed command exchange.
// Status holds the raw server reply text when one was received.
type ProbeError struct {
	Command string
	Code    int
	Status  string
	Err     error // underlying transport error, nil for unexpected replies
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrProbeFailure, e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %s: mail server responded with %q", ErrProbeFailure, e.Command, e.Status)
}

// Unwrap makes a ProbeError match both ErrProbeFailure and its transport error.
func (e *ProbeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProbeFailure}
	}
	return []error{ErrProbeFailure, e.Err}
}
