// Package mailprobe checks whether an email address is likely deliverable
// without sending a message: it resolves the domain's MX servers and asks
// the first one that answers whether it would accept mail for the address
// (HELO, MAIL FROM, RCPT TO).
//
// Basic usage:
//
//	res, err := mailprobe.New(mailprobe.Config{
//	    SenderAddress: "verify@myapp.com",
//	}).Verify(ctx, "user@example.com")
//
// With an address validator and a blacklist, both consulted before any
// network traffic:
//
//	v := mailprobe.New(cfg).
//	    WithValidator(check.NewMailgunValidator(apiKey)).
//	    WithBlacklist(check.AnyBlacklist{
//	        check.NewDomainList("spam.example"),
//	        check.NewDisposableList(),
//	    })
//
// A Rejected verdict is a normal result. Errors are reserved for addresses
// that could not be judged; see the Err* values.
package mailprobe

import "github.com/optimode/mailprobe/types"

// MailServer is a re-export from the types package so that consumers
// don't need to import the types package directly.
type MailServer = types.MailServer

// Verdict is a re-export.
type Verdict = types.Verdict

// Verdict constants re-exported.
const (
	VerdictUnknown = types.VerdictUnknown
	Accepted       = types.Accepted
	Rejected       = types.Rejected
)

// ProbeError is a re-export.
type ProbeError = types.ProbeError

// NoMailServerError is a re-export.
type NoMailServerError = types.NoMailServerError
