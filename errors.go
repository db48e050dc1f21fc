package mailprobe

import "github.com/optimode/mailprobe/types"

// Error kinds returned by Verify. Match them with errors.Is.
var (
	// ErrInvalid is returned when the configured validator rejects the address.
	ErrInvalid = types.ErrInvalid

	// ErrBlacklisted is returned when the address domain is blacklisted.
	ErrBlacklisted = types.ErrBlacklisted

	// ErrNoMailServer is returned when the domain has no MX record, does not
	// exist, or the address has no domain at all.
	ErrNoMailServer = types.ErrNoMailServer

	// ErrOutOfMailServers is returned when no MX candidate could be connected to.
	ErrOutOfMailServers = types.ErrOutOfMailServers

	// ErrNotConnected is returned when an SMTP command is issued without a session.
	ErrNotConnected = types.ErrNotConnected

	// ErrProbeFailure is returned when a server answers MAIL FROM or RCPT TO
	// with an unexpected reply, or the exchange breaks down. The *ProbeError
	// in the chain carries the server status.
	ErrProbeFailure = types.ErrProbeFailure

	// ErrInvalidConfig is returned when the Config cannot be used, for example
	// a SenderAddress without a domain.
	ErrInvalidConfig = types.ErrInvalidConfig
)
