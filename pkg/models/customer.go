package models

import "strings"

// IdentifierDigits is the length of a canonical national ID.
const IdentifierDigits = 11

// Customer is the contact snapshot embedded in an order. It has no identity
// of its own beyond CanonicalID.
type Customer struct {
	Identifier  string `json:"identifier"`
	CanonicalID string `json:"canonical_id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
}

// CanonicalIdentifier strips every non-digit character.
func CanonicalIdentifier(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatIdentifier renders the digits of s with the 000.000.000-00 mask,
// truncating anything past IdentifierDigits.
func FormatIdentifier(s string) string {
	digits := CanonicalIdentifier(s)
	if len(digits) > IdentifierDigits {
		digits = digits[:IdentifierDigits]
	}
	var b strings.Builder
	for i, r := range digits {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize trims the contact fields and fills in CanonicalID.
func (c Customer) Normalize() Customer {
	c.Identifier = strings.TrimSpace(c.Identifier)
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.CanonicalID = CanonicalIdentifier(c.Identifier)
	return c
}

// Complete reports whether identifier, name and phone are all present.
func (c Customer) Complete() bool {
	return c.CanonicalID != "" && c.Name != "" && c.Phone != ""
}
