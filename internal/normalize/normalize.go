// Package normalize validates and deduplicates raw contact records
// into the canonical dataset.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

const (
	maxNameLen = 100
	maxCityLen = 50
)

// placeholderPhones are sequences that show up in scraped data when a
// site has no real number.
var placeholderPhones = map[string]struct{}{
	"6666666666": {},
	"0000000000": {},
}

// invalidAreaCodes are prefixes that cannot occur in real US numbers
// but appear frequently in scraped footers.
var invalidAreaCodes = []string{"176", "155", "204"}

// CleanName strips embedded quotes, collapses whitespace runs, trims,
// and caps the name at 100 characters. Returns "" for unusable names.
func CleanName(name string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, `"`, "")
	name = strings.Join(strings.Fields(name), " ")
	return truncate(name, maxNameLen)
}

// NormalizeEmail lower-cases and trims the address. Addresses missing
// either "@" or "." are rejected, as are ones matching the junk
// heuristics ("example", "test@"). The filter deliberately tolerates
// false positives; it is not an RFC validator.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return ""
	}
	if strings.Contains(email, "example") || strings.Contains(email, "test@") {
		return ""
	}
	return email
}

// NormalizePhone strips non-digits and accepts only 10-digit US
// numbers, rejecting known placeholders and impossible area codes.
// Accepted numbers are formatted as (XXX) XXX-XXXX.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) != 10 {
		return ""
	}
	if _, ok := placeholderPhones[d]; ok {
		return ""
	}
	for _, prefix := range invalidAreaCodes {
		if strings.HasPrefix(d, prefix) {
			return ""
		}
	}
	return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:10]
}

// CleanCity strips quotes, trims, and caps the city at 50 characters.
func CleanCity(city string) string {
	city = norm.NFC.String(city)
	city = strings.TrimSpace(strings.ReplaceAll(city, `"`, ""))
	return truncate(city, maxCityLen)
}

// NormalizeState trims, upper-cases, and truncates to the 2-letter
// code.
func NormalizeState(state string) string {
	return truncate(strings.ToUpper(strings.TrimSpace(state)), 2)
}

// Record normalizes one raw record into a ContactRecord. The result
// may fail the admission rules; callers check Admissible.
func Record(raw model.RawRecord) model.ContactRecord {
	website := strings.TrimSpace(raw.Get("website"))
	if website == "" {
		website = strings.TrimSpace(raw.Get("url"))
	}
	typ := strings.TrimSpace(raw.Get("type"))
	if typ == "" {
		typ = "Shelter"
	}

	return model.ContactRecord{
		Name:     CleanName(raw.Get("name")),
		Email:    NormalizeEmail(raw.Get("email")),
		Phone:    NormalizePhone(raw.Get("phone")),
		City:     CleanCity(raw.Get("city")),
		State:    NormalizeState(raw.Get("state")),
		Website:  website,
		Facebook: strings.TrimSpace(raw.Get("facebook")),
		Type:     typ,
		Notes:    strings.TrimSpace(raw.Get("notes")),
	}
}

// Admissible reports whether a normalized record may enter the
// canonical dataset: it must have a name and at least one valid
// contact channel.
func Admissible(c model.ContactRecord) bool {
	return c.Name != "" && c.HasContactInfo()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Cut on a rune boundary.
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
