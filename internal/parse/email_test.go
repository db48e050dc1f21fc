package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mailprobe/internal/parse"
)

func TestNewEmail(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		local         string
		domain        string
		domainUnicode string
	}{
		{"ascii", "user@example.com", "user", "example.com", "example.com"},
		{"whitespace trimmed", "  user@example.com  ", "user", "example.com", "example.com"},
		{"domain lower-cased", "user@EXAMPLE.COM", "user", "example.com", "example.com"},
		{"trailing root dot", "user@example.com.", "user", "example.com", "example.com"},
		{"display name form", "User <user@example.com>", "user", "example.com", "example.com"},
		{"unicode domain", "user@münchen.de", "user", "xn--mnchen-3ya.de", "münchen.de"},
		{"punycode domain", "user@xn--mnchen-3ya.de", "user", "xn--mnchen-3ya.de", "münchen.de"},
		{"unicode local", "用户@example.com", "用户", "example.com", "example.com"},
		{"unicode local and domain", "用户@münchen.de", "用户", "xn--mnchen-3ya.de", "münchen.de"},
		{"cyrillic domain", "user@почта.рф", "user", "xn--80a1acny.xn--p1ai", "почта.рф"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parse.NewEmail(tt.raw)
			assert.True(t, e.Valid)
			assert.Equal(t, tt.local, e.Local)
			assert.Equal(t, tt.domain, e.Domain)
			assert.Equal(t, tt.domainUnicode, e.DomainUnicode)
		})
	}
}

func TestNewEmail_Invalid(t *testing.T) {
	for _, raw := range []string{"", "noatsign", "@nodomain", "nolocal@", "   "} {
		e := parse.NewEmail(raw)
		assert.False(t, e.Valid, "expected invalid for %q", raw)
		assert.Empty(t, e.Domain, "invalid %q must not carry a domain", raw)
	}
}

func TestNewEmail_KeepsRaw(t *testing.T) {
	e := parse.NewEmail(" noatsign ")
	assert.Equal(t, "noatsign", e.Raw)
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "nonexistant.com", parse.DomainOf("nobody@nonexistant.com"))
	assert.Equal(t, "", parse.DomainOf("nobody"))
}

func TestNewEmail_Address(t *testing.T) {
	assert.Equal(t, "user@example.com", parse.NewEmail("User <user@example.com>").Address)
	assert.Equal(t, `"john doe"@example.com`, parse.NewEmail(`"john doe"@example.com`).Address)
	assert.Equal(t, `"john doe"`, parse.NewEmail(`"john doe"@example.com`).Local)
}
