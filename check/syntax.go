package check

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/optimode/mailprobe/internal/parse"
)

// SyntaxChecker validates addresses offline according to RFC 5321/5322,
// with RFC 6531 (SMTPUTF8) local parts and IDNA2008 domains.
type SyntaxChecker struct{}

func NewSyntaxChecker() *SyntaxChecker {
	return &SyntaxChecker{}
}

// Validate reports whether address is syntactically valid. It never returns
// an error; the reason for a rejection is available from Explain.
func (c *SyntaxChecker) Validate(_ context.Context, address string) (bool, error) {
	return c.Explain(address) == nil, nil
}

// Explain returns nil for a valid address, or an error describing the first
// rule it breaks.
func (c *SyntaxChecker) Explain(address string) error {
	email := parse.NewEmail(address)
	if email.Raw == "" {
		return errors.New("empty email address")
	}
	if !email.Valid {
		return errors.New("invalid email syntax")
	}

	// RFC 5321 length limits
	if len(email.Address) > 254 {
		return errors.New("email address exceeds 254 characters")
	}
	if len(email.Local) > 64 {
		return errors.New("local part exceeds 64 characters")
	}

	if err := checkLocal(email.Local); err != nil {
		return err
	}
	// IDNA2008 was already enforced while parsing, the Unicode form gives
	// readable messages
	return checkDomain(email.DomainUnicode)
}

// localSpecials are the RFC 5321 atext characters besides letters and digits.
const localSpecials = "!#$%&'*+/=?^_`{|}~-."

func checkLocal(local string) error {
	if local == "" {
		return errors.New("local part is empty")
	}
	// quoted form: any printable content is allowed
	if len(local) >= 2 && strings.HasPrefix(local, `"`) && strings.HasSuffix(local, `"`) {
		return nil
	}

	for _, ch := range local {
		switch {
		case ch > unicode.MaxASCII:
			if unicode.IsControl(ch) {
				return errors.New("local part contains control character")
			}
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case strings.ContainsRune(localSpecials, ch):
		default:
			return fmt.Errorf("local part contains invalid character: %q", ch)
		}
	}

	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return errors.New("local part cannot start or end with a dot")
	}
	if strings.Contains(local, "..") {
		return errors.New("local part cannot contain consecutive dots")
	}
	return nil
}

func checkDomain(domain string) error {
	if domain == "" {
		return errors.New("domain is empty")
	}
	// address literal such as [192.0.2.1]; MX resolution will not find it
	if strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]") {
		return errors.New("address literals are not supported")
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return errors.New("domain must have at least two labels")
	}
	for _, label := range labels {
		if err := checkLabel(label); err != nil {
			return err
		}
	}

	tld := labels[len(labels)-1]
	if strings.IndexFunc(tld, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return errors.New("TLD cannot be all digits")
	}
	return nil
}

func checkLabel(label string) error {
	switch {
	case label == "":
		return errors.New("domain contains empty label (consecutive dots)")
	case len(label) > 63:
		return errors.New("domain label exceeds 63 characters")
	case strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-"):
		return errors.New("domain label cannot start or end with a hyphen")
	}
	for _, ch := range label {
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' {
			return fmt.Errorf("domain label contains invalid character: %q", ch)
		}
	}
	return nil
}
