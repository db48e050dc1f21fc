// Package types contains the shared types for mailprobe.
// This package does not import anything from other mailprobe packages
// to avoid circular imports.
package types

// MailServer is a mail exchanger of a domain, as published in its MX records.
// Lower Priority values are preferred.
type MailServer struct {
	Priority uint16 `json:"priority"`
	Host     string `json:"host"`
}

// Verdict is the outcome of a recipient probe.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	Accepted
	Rejected
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MarshalText makes a Verdict render as its name in JSON and YAML output.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
