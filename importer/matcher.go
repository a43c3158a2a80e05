// ABOUTME: Customer deduplication by platform contact key
// ABOUTME: Normalizes emails, LinkedIn URLs, and phone numbers before comparing
package importer

import (
	"strings"
	"unicode"

	"github.com/harperreed/outbound/models"
)

// CustomerMatcher tracks the contact keys already present for one platform.
type CustomerMatcher struct {
	platform models.Platform
	seen     map[string]struct{}
}

// NewCustomerMatcher creates a matcher from existing customers.
func NewCustomerMatcher(platform models.Platform, customers []models.Customer) *CustomerMatcher {
	m := &CustomerMatcher{
		platform: platform,
		seen:     make(map[string]struct{}),
	}
	for _, c := range customers {
		m.Add(c)
	}
	return m
}

// Seen reports whether a customer with the same contact key is known.
func (m *CustomerMatcher) Seen(c models.Customer) bool {
	key := NormalizeKey(m.platform, c.ContactKey(m.platform))
	if key == "" {
		return false
	}
	_, ok := m.seen[key]
	return ok
}

// Add records c so later rows of the same upload are treated as duplicates.
func (m *CustomerMatcher) Add(c models.Customer) {
	key := NormalizeKey(m.platform, c.ContactKey(m.platform))
	if key != "" {
		m.seen[key] = struct{}{}
	}
}

// NormalizeKey canonicalizes a contact value for comparison.
func NormalizeKey(platform models.Platform, value string) string {
	switch platform {
	case models.PlatformEmail:
		return normalizeEmail(value)
	case models.PlatformLinkedIn:
		return normalizeLinkedIn(value)
	case models.PlatformPhone:
		return normalizePhone(value)
	}
	return strings.TrimSpace(value)
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeLinkedIn(url string) string {
	url = strings.ToLower(strings.TrimSpace(url))
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "www.")
	return strings.TrimRight(url, "/")
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}
