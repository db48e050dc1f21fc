package check_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mailprobe/check"
)

func TestSyntaxChecker(t *testing.T) {
	c := check.NewSyntaxChecker()
	ctx := context.Background()

	tests := []struct {
		name   string
		email  string
		wantOK bool
	}{
		{"valid simple", "user@example.com", true},
		{"valid with plus", "user+tag@example.com", true},
		{"valid with dots", "first.last@example.com", true},
		{"valid quoted local", `"user name"@example.com`, true},
		{"valid subdomain", "user@mail.example.co.uk", true},
		{"valid display name", "User <user@example.com>", true},
		{"empty", "", false},
		{"no at sign", "userexample.com", false},
		{"no domain", "user@", false},
		{"no local", "@example.com", false},
		{"double dot local", "user..name@example.com", false},
		{"leading dot local", ".user@example.com", false},
		{"trailing dot local", "user.@example.com", false},
		{"space in local", "user name@example.com", false},
		{"consecutive dots domain", "user@exam..ple.com", false},
		{"single label domain", "user@localhost", false},
		{"too long total", strings.Repeat("a", 64) + "@" + strings.Repeat(strings.Repeat("b", 60)+".", 4) + "com", false},
		{"too long local", strings.Repeat("a", 65) + "@example.com", false},
		{"numeric TLD", "user@example.123", false},
		{"label starts with hyphen", "user@-example.com", false},
		{"label ends with hyphen", "user@example-.com", false},
		{"address literal", "user@[192.0.2.1]", false},

		{"valid IDN german", "user@münchen.de", true},
		{"valid IDN japanese", "user@例え.jp", true},
		{"valid Punycode", "user@xn--mnchen-3ya.de", true},
		{"valid EAI chinese local", "用户@example.com", true},
		{"valid EAI both unicode", "用户@münchen.de", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := c.Validate(ctx, tt.email)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok, "reason: %v", c.Explain(tt.email))
		})
	}
}

func TestSyntaxChecker_Explain(t *testing.T) {
	c := check.NewSyntaxChecker()
	assert.NoError(t, c.Explain("user@example.com"))
	assert.EqualError(t, c.Explain(""), "empty email address")
	assert.EqualError(t, c.Explain("nobody"), "invalid email syntax")
	assert.EqualError(t, c.Explain("user..name@example.com"), "local part cannot contain consecutive dots")
	assert.EqualError(t, c.Explain("user@example.123"), "TLD cannot be all digits")
}
