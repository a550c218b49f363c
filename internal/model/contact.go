// Package model defines the shared types for the outreach pipeline.
package model

import "strings"

// RawRecord is a loosely-typed field mapping produced by a raw record
// source (CSV row, XLSX row, API response object). Keys are lowercase
// header names; values are untrimmed source text.
type RawRecord map[string]string

// Get returns the value for key, or "" if absent.
func (r RawRecord) Get(key string) string {
	return r[key]
}

// ContactRecord is a cleaned, validated organization contact.
type ContactRecord struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	State    string `json:"state"`
	Website  string `json:"website"`
	Facebook string `json:"facebook"`
	Type     string `json:"type"`
	Notes    string `json:"notes"`
}

// DedupKey is the identity used for deduplication: the lowercased,
// whitespace-stripped concatenation of name, email, and phone.
func (c ContactRecord) DedupKey() string {
	key := strings.ToLower(c.Name + c.Email + c.Phone)
	return strings.Join(strings.Fields(key), "")
}

// HasContactInfo reports whether the record carries at least one valid
// contact channel. Records without contact info are never admitted to
// the canonical dataset.
func (c ContactRecord) HasContactInfo() bool {
	return c.Email != "" || c.Phone != ""
}
