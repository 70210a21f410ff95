package registerform

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	upperRe   = regexp.MustCompile(`[A-ZÅÄÖ]`)
	lowerRe   = regexp.MustCompile(`[a-zåäö]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[^a-zA-Z0-9åäöÅÄÖ]`)
)

// PasswordPolicy defines the requirements for password complexity
type PasswordPolicy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
	DisallowCommonPwds bool
	MaxRepeatedChars   int
}

// DefaultPasswordPolicy returns the policy used when none is configured.
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:          8,
		RequireUppercase:   true,
		RequireLowercase:   true,
		RequireDigit:       true,
		RequireSpecialChar: false,
		DisallowCommonPwds: true,
		MaxRepeatedChars:   3,
	}
}

var commonPasswords = map[string]bool{
	"password": true, "12345678": true, "qwerty12": true, "salasana": true,
	"salasana1": true, "password1": true, "letmein1": true, "welcome1": true,
}

// Check returns the message of the first rule the password breaks, or "" when
// the password satisfies the policy.
func (p *PasswordPolicy) Check(password string) string {
	if len([]rune(password)) < p.MinLength {
		return fmt.Sprintf("Salasanan tulee olla vähintään %d merkkiä pitkä", p.MinLength)
	}
	if p.RequireUppercase && !upperRe.MatchString(password) {
		return "Salasanassa tulee olla vähintään yksi iso kirjain"
	}
	if p.RequireLowercase && !lowerRe.MatchString(password) {
		return "Salasanassa tulee olla vähintään yksi pieni kirjain"
	}
	if p.RequireDigit && !digitRe.MatchString(password) {
		return "Salasanassa tulee olla vähintään yksi numero"
	}
	if p.RequireSpecialChar && !specialRe.MatchString(password) {
		return "Salasanassa tulee olla vähintään yksi erikoismerkki"
	}
	if p.DisallowCommonPwds && commonPasswords[strings.ToLower(password)] {
		return "Salasana on liian yleinen"
	}
	if p.MaxRepeatedChars > 0 && hasRepeatedChars(password, p.MaxRepeatedChars) {
		return fmt.Sprintf("Salasanassa saa olla enintään %d samaa merkkiä peräkkäin", p.MaxRepeatedChars)
	}
	return ""
}

// hasRepeatedChars reports whether more than max identical runes occur in a row.
func hasRepeatedChars(password string, max int) bool {
	run := 0
	var prev rune
	for i, r := range []rune(password) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run > max {
			return true
		}
		prev = r
	}
	return false
}
