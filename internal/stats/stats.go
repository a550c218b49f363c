// Package stats aggregates outreach progress for the dashboard and
// the stats API.
package stats

import (
	"sort"
	"time"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// StateCount is the number of dataset records for one state.
type StateCount struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

// Summary is the aggregated outreach overview.
type Summary struct {
	DatasetPath string     `json:"dataset_path,omitempty"`
	LastRun     *time.Time `json:"last_run"`

	Total     int `json:"total"`
	Contacted int `json:"contacted"`
	Remaining int `json:"remaining"`
	WithEmail int `json:"with_email"`
	WithPhone int `json:"with_phone"`

	ByState      []StateCount          `json:"by_state"`
	RecentlySent []model.RunLogEntry   `json:"recently_sent"`
	NextUp       []model.ContactRecord `json:"next_up"`
}

// Build computes the summary from the canonical dataset, the outreach
// state, and the run-log history. recentLimit and queueLimit cap the
// RecentlySent and NextUp lists; zero means 10.
func Build(records []model.ContactRecord, state *model.OutreachState, logs []model.RunLogEntry, recentLimit, queueLimit int) Summary {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	if queueLimit <= 0 {
		queueLimit = 10
	}

	s := Summary{
		LastRun:   state.LastRun,
		Total:     len(records),
		Contacted: state.ContactedCount(),
	}

	counts := make(map[string]int)
	for _, r := range records {
		st := r.State
		if st == "" {
			st = "Unknown"
		}
		counts[st]++

		if r.Email != "" {
			s.WithEmail++
		}
		if r.Phone != "" {
			s.WithPhone++
		}

		if r.Email != "" && !state.IsContacted(r.Email) {
			s.Remaining++
			if len(s.NextUp) < queueLimit {
				s.NextUp = append(s.NextUp, r)
			}
		}
	}

	s.ByState = make([]StateCount, 0, len(counts))
	for st, n := range counts {
		s.ByState = append(s.ByState, StateCount{State: st, Count: n})
	}
	// Busiest states first; ties alphabetical for stable output.
	sort.Slice(s.ByState, func(i, j int) bool {
		if s.ByState[i].Count != s.ByState[j].Count {
			return s.ByState[i].Count > s.ByState[j].Count
		}
		return s.ByState[i].State < s.ByState[j].State
	})

	var sent []model.RunLogEntry
	for _, e := range logs {
		if e.Status == model.SendStatusSent {
			sent = append(sent, e)
		}
	}
	sort.SliceStable(sent, func(i, j int) bool {
		return sent[i].Timestamp.After(sent[j].Timestamp)
	})
	if len(sent) > recentLimit {
		sent = sent[:recentLimit]
	}
	s.RecentlySent = sent

	return s
}
