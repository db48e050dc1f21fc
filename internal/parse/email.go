// Package parse splits an email address into its local part and domain.
// The domain is derived once here and reused by every later stage.
package parse

import (
	"strings"

	"golang.org/x/net/idna"
)

// Email is a parsed email address.
type Email struct {
	Raw           string // the original, trimmed input
	Address       string // addr-spec without display name, used in RCPT TO
	Local         string // the part before the last @
	Domain        string // lower-cased ASCII/Punycode domain (for DNS/SMTP)
	DomainUnicode string // Unicode form of Domain (for display)
	Valid         bool   // false if no local part and domain could be extracted
}

// NewEmail parses raw. It never fails: an unparsable input yields an Email
// with Valid=false, an empty Domain and Raw populated.
//
// A display-name form ("Name <user@example.com>") is reduced to the part
// inside the angle brackets. The local part is kept as written, quotes
// included, and may contain non-ASCII characters (SMTPUTF8).
func NewEmail(raw string) Email {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Email{}
	}

	address := raw
	if i := strings.LastIndex(raw, "<"); i >= 0 && strings.HasSuffix(raw, ">") {
		address = strings.TrimSpace(raw[i+1 : len(raw)-1])
	}

	at := strings.LastIndex(address, "@")
	if at < 1 || at == len(address)-1 {
		return Email{Raw: raw}
	}

	ascii, unicode, ok := Domain(address[at+1:])
	if !ok {
		return Email{Raw: raw}
	}
	return Email{
		Raw:           raw,
		Address:       address,
		Local:         address[:at],
		Domain:        ascii,
		DomainUnicode: unicode,
		Valid:         true,
	}
}

// DomainOf returns the ASCII domain of address, or "" if it has none.
func DomainOf(address string) string {
	return NewEmail(address).Domain
}

// Domain normalizes a domain name to lower case and returns its
// ASCII (Punycode) and Unicode forms. ok is false when a non-ASCII
// domain fails IDNA2008 validation.
func Domain(domain string) (ascii, unicode string, ok bool) {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	if domain == "" {
		return "", "", false
	}

	if isASCII(domain) {
		// xn-- labels get a readable form; anything idna refuses is kept as is
		u, err := idna.Display.ToUnicode(domain)
		if err != nil {
			u = domain
		}
		return domain, u, true
	}

	a, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", "", false
	}
	return a, domain, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
