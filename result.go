package mailprobe

// Result is the outcome of one verification.
// MXHost, SMTPCode and Status describe the last reply received, when there
// was one, including for failed verifications.
type Result struct {
	Email    string  `json:"email"`
	Verdict  Verdict `json:"verdict"`
	MXHost   string  `json:"mxHost,omitempty"`
	SMTPCode int     `json:"smtpCode,omitempty"`
	Status   string  `json:"status,omitempty"`
	// Err is the error text for results produced by VerifyMany.
	Err string `json:"error,omitempty"`
}

// Accepted reports whether the server accepted the recipient.
func (r Result) Accepted() bool { return r.Verdict == Accepted }

// Rejected reports whether the server refused the recipient (55x).
func (r Result) Rejected() bool { return r.Verdict == Rejected }
