package model

import "time"

// CanonicalDataset is the deduplicated, sorted output of one cleaning
// run. Records are ordered by (state, name) ascending; the ordering is
// deterministic so that regenerated snapshots are reproducible.
type CanonicalDataset struct {
	Records   []ContactRecord `json:"records"`
	CreatedAt time.Time       `json:"created_at"`
}

// Stats derives the reporting counts for the dataset.
func (d *CanonicalDataset) Stats() DatasetStats {
	s := DatasetStats{Total: len(d.Records)}
	for _, r := range d.Records {
		if r.Email != "" {
			s.WithEmail++
		}
		if r.Phone != "" {
			s.WithPhone++
		}
	}
	return s
}

// DatasetStats summarizes one cleaning run.
type DatasetStats struct {
	Total     int `json:"total"`
	WithEmail int `json:"with_email"`
	WithPhone int `json:"with_phone"`

	// RawRecords counts records seen before admission and dedup.
	RawRecords int `json:"raw_records"`
	// Rejected counts records dropped by the admission rules.
	Rejected int `json:"rejected"`
	// Duplicates counts records dropped by the dedup pass.
	Duplicates int `json:"duplicates"`
	// SourcesSkipped counts unreadable sources that were skipped.
	SourcesSkipped int `json:"sources_skipped"`
}
