package model

import "time"

// RunOutcome classifies a campaign invocation.
type RunOutcome string

const (
	RunOutcomeCompleted RunOutcome = "completed"
	RunOutcomeSkipped   RunOutcome = "skipped"
)

// SkipReason explains why a campaign invocation did nothing.
type SkipReason string

const (
	SkipReasonNone           SkipReason = ""
	SkipReasonOutsideWindow  SkipReason = "outside_window"
	SkipReasonQueueExhausted SkipReason = "queue_exhausted"
)

// SendStatus is the per-contact dispatch outcome.
type SendStatus string

const (
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)

// RunLogEntry is one dispatch attempt in the daily run log.
type RunLogEntry struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Status    SendStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Error     string     `json:"error,omitempty"`
}

// RunResult is the outcome of one scheduler invocation.
type RunResult struct {
	RunID      string        `json:"run_id"`
	Outcome    RunOutcome    `json:"outcome"`
	SkipReason SkipReason    `json:"skip_reason,omitempty"`
	Sent       int           `json:"sent"`
	Failed     int           `json:"failed"`
	Remaining  int           `json:"remaining"`
	Entries    []RunLogEntry `json:"entries,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Skipped reports whether the invocation ended without dispatching.
func (r *RunResult) Skipped() bool {
	return r.Outcome == RunOutcomeSkipped
}
