// Package check contains the collaborators a verifier consults before any
// DNS or SMTP traffic: address validators (offline syntax, Mailgun) and
// domain blacklists (static, disposable, Redis).
// Validators implement mailprobe.AddressValidator and blacklists implement
// mailprobe.DomainBlacklist; they can also be used on their own.
package check
