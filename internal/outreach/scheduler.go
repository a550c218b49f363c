// Package outreach schedules and dispatches the daily campaign batch.
package outreach

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/whitecoat-dvm/outreach-cli/internal/config"
	"github.com/whitecoat-dvm/outreach-cli/internal/model"
	"github.com/whitecoat-dvm/outreach-cli/internal/runlog"
	"github.com/whitecoat-dvm/outreach-cli/internal/store"
)

// Scheduler selects the next batch of uncontacted records, dispatches
// them sequentially, and records outcomes durably before returning.
type Scheduler struct {
	store  store.Store
	sender Sender
	clock  Clock
	runlog *runlog.Writer
	cfg    config.OutreachConfig
}

// RunOptions modify a single invocation.
type RunOptions struct {
	// Force bypasses the weekday/hour gate for operator-triggered
	// runs.
	Force bool
	// Limit caps the batch below the configured daily quota when
	// positive.
	Limit int
}

// NewScheduler creates a Scheduler.
func NewScheduler(st store.Store, sender Sender, clock Clock, rl *runlog.Writer, cfg config.OutreachConfig) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	return &Scheduler{store: st, sender: sender, clock: clock, runlog: rl, cfg: cfg}
}

// Plan returns the eligible queue and the batch the next invocation
// would dispatch, without side effects. Used for dry runs.
func (s *Scheduler) Plan(ctx context.Context, records []model.ContactRecord, opts RunOptions) (eligible, batch []model.ContactRecord, err error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "outreach: load state")
	}
	eligible = eligibleQueue(records, state)
	batch = eligible[:min(s.quota(opts), len(eligible))]
	return eligible, batch, nil
}

// RunCampaign executes one scheduler invocation over the canonical
// dataset records (already in state/name order).
//
// Outside the configured window (unless forced) or with an empty
// eligible queue it returns a skipped result and touches nothing.
// Otherwise it dispatches up to the daily quota sequentially, spacing
// sends by the configured delay, then commits the state store exactly
// once and appends the day's run log. Individual send failures are
// recorded and do not abort the batch; a commit failure is fatal
// because losing it risks re-contacting recipients on the next run.
func (s *Scheduler) RunCampaign(ctx context.Context, records []model.ContactRecord, opts RunOptions) (*model.RunResult, error) {
	now := s.clock.Now()
	result := &model.RunResult{
		RunID:     uuid.New().String(),
		StartedAt: now,
	}

	if !opts.Force && !s.withinWindow(now) {
		zap.L().Info("outreach: outside sending window, skipping",
			zap.String("run_id", result.RunID),
			zap.Time("now", now),
			zap.Int("start_hour", s.cfg.StartHour),
			zap.Int("end_hour", s.cfg.EndHour),
		)
		result.Outcome = model.RunOutcomeSkipped
		result.SkipReason = model.SkipReasonOutsideWindow
		return result, nil
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "outreach: load state")
	}

	eligible := eligibleQueue(records, state)
	if len(eligible) == 0 {
		zap.L().Info("outreach: queue exhausted, nothing to send",
			zap.String("run_id", result.RunID),
			zap.Int("dataset", len(records)),
			zap.Int("contacted", state.ContactedCount()),
		)
		result.Outcome = model.RunOutcomeSkipped
		result.SkipReason = model.SkipReasonQueueExhausted
		return result, nil
	}

	batch := eligible[:min(s.quota(opts), len(eligible))]

	zap.L().Info("outreach: dispatching batch",
		zap.String("run_id", result.RunID),
		zap.Int("batch", len(batch)),
		zap.Int("eligible", len(eligible)),
		zap.Int("previously_contacted", state.ContactedCount()),
	)

	var pacer *rate.Limiter
	if s.cfg.InterMessageDelay > 0 {
		pacer = rate.NewLimiter(rate.Every(s.cfg.InterMessageDelay), 1)
	}

	for i, contact := range batch {
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				return result, eris.Wrap(err, "outreach: pacing wait")
			}
		}

		entry := model.RunLogEntry{
			Name:      contact.Name,
			Email:     contact.Email,
			Timestamp: s.clock.Now().UTC(),
		}

		if err := s.sender.Send(ctx, contact); err != nil {
			entry.Status = model.SendStatusFailed
			entry.Error = err.Error()
			result.Failed++
			zap.L().Warn("outreach: send failed",
				zap.String("run_id", result.RunID),
				zap.String("contact", contact.Name),
				zap.String("email", contact.Email),
				zap.Int("position", i+1),
				zap.Error(err),
			)
		} else {
			entry.Status = model.SendStatusSent
			state.RecordContacted(contact.Email)
			result.Sent++
			zap.L().Info("outreach: sent",
				zap.String("run_id", result.RunID),
				zap.String("contact", contact.Name),
				zap.String("email", contact.Email),
				zap.Int("position", i+1),
			)
		}
		result.Entries = append(result.Entries, entry)
	}

	finished := s.clock.Now()
	state.LastRun = &finished

	// Single commit after the batch. If this fails the run is fatal:
	// successful sends would not be remembered and could repeat.
	if err := s.store.Commit(ctx, state); err != nil {
		return result, eris.Wrap(err, "outreach: commit state")
	}

	if s.runlog != nil {
		if path, err := s.runlog.Append(finished, result.Entries); err != nil {
			zap.L().Error("outreach: run log write failed",
				zap.String("run_id", result.RunID),
				zap.Error(err),
			)
		} else {
			zap.L().Info("outreach: run log written",
				zap.String("run_id", result.RunID),
				zap.String("path", path),
			)
		}
	}

	result.Outcome = model.RunOutcomeCompleted
	result.Remaining = len(eligible) - len(batch)
	result.Duration = finished.Sub(result.StartedAt)

	zap.L().Info("outreach: run complete",
		zap.String("run_id", result.RunID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("remaining", result.Remaining),
	)

	return result, nil
}

// withinWindow checks the weekday/hour gate in local time.
func (s *Scheduler) withinWindow(now time.Time) bool {
	weekdayOK := false
	for _, d := range s.cfg.AllowedWeekdays {
		if int(now.Weekday()) == d {
			weekdayOK = true
			break
		}
	}
	hour := now.Hour()
	return weekdayOK && hour >= s.cfg.StartHour && hour < s.cfg.EndHour
}

func (s *Scheduler) quota(opts RunOptions) int {
	quota := s.cfg.DailyQuota
	if opts.Limit > 0 && opts.Limit < quota {
		quota = opts.Limit
	}
	return quota
}

// eligibleQueue filters the dataset to contacts that can be emailed
// and have not been contacted, preserving dataset order.
func eligibleQueue(records []model.ContactRecord, state *model.OutreachState) []model.ContactRecord {
	var eligible []model.ContactRecord
	for _, r := range records {
		if r.Email == "" {
			continue
		}
		if state.IsContacted(r.Email) {
			continue
		}
		eligible = append(eligible, r)
	}
	return eligible
}
