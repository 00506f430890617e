// Package normalize canonicalises user input before it is stored or
// compared.
package normalize

import "strings"

// Email lowercases and trims. Every lookup by e-mail goes through it.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses inner runs of whitespace. Case is kept.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone keeps digits and a leading plus.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' || r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Role trims. Roles are free text chosen at sign-up.
func Role(s string) string {
	return strings.TrimSpace(s)
}
