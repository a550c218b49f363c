package model

import (
	"sort"
	"strings"
	"time"
)

// OutreachState is the durable campaign history: the set of emails
// that have ever been contacted plus the timestamp of the last run.
// The contacted set only grows; nothing ever removes an email from it.
type OutreachState struct {
	contacted map[string]struct{}
	LastRun   *time.Time
}

// NewOutreachState returns an empty state.
func NewOutreachState() *OutreachState {
	return &OutreachState{contacted: make(map[string]struct{})}
}

// IsContacted reports whether email has already received outreach.
// The check is case-insensitive.
func (s *OutreachState) IsContacted(email string) bool {
	_, ok := s.contacted[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// RecordContacted adds email to the contacted set. Adding an email
// that is already present is a no-op.
func (s *OutreachState) RecordContacted(email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}
	s.contacted[email] = struct{}{}
}

// ContactedCount returns the size of the contacted set.
func (s *OutreachState) ContactedCount() int {
	return len(s.contacted)
}

// ContactedEmails returns the contacted set sorted ascending, for
// stable serialization.
func (s *OutreachState) ContactedEmails() []string {
	emails := make([]string, 0, len(s.contacted))
	for e := range s.contacted {
		emails = append(emails, e)
	}
	sort.Strings(emails)
	return emails
}
