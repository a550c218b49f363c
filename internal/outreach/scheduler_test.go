package outreach

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitecoat-dvm/outreach-cli/internal/config"
	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// Friday 2026-08-28 10:00 local, inside the default window.
var insideWindow = time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)

// Saturday 2026-08-29.
var saturday = time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local)

func testOutreachConfig(quota int) config.OutreachConfig {
	return config.OutreachConfig{
		FromEmail:       "partners@whitecoatdvm.com",
		DailyQuota:      quota,
		AllowedWeekdays: []int{1, 2, 3, 4, 5},
		StartHour:       7,
		EndHour:         16,
	}
}

func shelters(emails ...string) []model.ContactRecord {
	records := make([]model.ContactRecord, 0, len(emails))
	for i, e := range emails {
		records = append(records, model.ContactRecord{
			Name:  "Shelter " + string(rune('A'+i)),
			Email: e,
			State: "TX",
		})
	}
	return records
}

func TestRunCampaign_SkipsOutsideWindow(t *testing.T) {
	st := newMockStore()
	sender := &mockSender{}
	s := NewScheduler(st, sender, fixedClock{saturday}, nil, testOutreachConfig(5))

	result, err := s.RunCampaign(context.Background(), shelters("a@x.org"), RunOptions{})
	require.NoError(t, err)
	assert.True(t, result.Skipped())
	assert.Equal(t, model.SkipReasonOutsideWindow, result.SkipReason)
	assert.Empty(t, sender.sent, "no sends on a skipped run")
	assert.Zero(t, st.commits, "no commit on a skipped run")
}

func TestRunCampaign_SkipsOutsideHours(t *testing.T) {
	early := time.Date(2026, 8, 28, 6, 59, 0, 0, time.Local)
	late := time.Date(2026, 8, 28, 16, 0, 0, 0, time.Local)

	for name, now := range map[string]time.Time{"before start": early, "at end hour": late} {
		t.Run(name, func(t *testing.T) {
			s := NewScheduler(newMockStore(), &mockSender{}, fixedClock{now}, nil, testOutreachConfig(5))
			result, err := s.RunCampaign(context.Background(), shelters("a@x.org"), RunOptions{})
			require.NoError(t, err)
			assert.Equal(t, model.SkipReasonOutsideWindow, result.SkipReason)
		})
	}
}

func TestRunCampaign_ForceBypassesWindow(t *testing.T) {
	st := newMockStore()
	sender := &mockSender{}
	s := NewScheduler(st, sender, fixedClock{saturday}, nil, testOutreachConfig(5))

	result, err := s.RunCampaign(context.Background(), shelters("a@x.org"), RunOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, model.RunOutcomeCompleted, result.Outcome)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, []string{"a@x.org"}, sender.sent)
}

func TestRunCampaign_QuotaBoundsBatch(t *testing.T) {
	st := newMockStore()
	sender := &mockSender{}
	s := NewScheduler(st, sender, fixedClock{insideWindow}, nil, testOutreachConfig(2))

	result, err := s.RunCampaign(context.Background(), shelters("a@x.org", "b@x.org", "c@x.org"), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Remaining)
	assert.Equal(t, []string{"a@x.org", "b@x.org"}, sender.sent, "dataset order preserved")
}

func TestRunCampaign_QuotaLargerThanQueue(t *testing.T) {
	st := newMockStore()
	sender := &mockSender{}
	s := NewScheduler(st, sender, fixedClock{insideWindow}, nil, testOutreachConfig(20))

	result, err := s.RunCampaign(context.Background(), shelters("a@x.org", "b@x.org"), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Zero(t, result.Remaining)
}

func TestRunCampaign_DailyQuotaOne(t *testing.T) {
	st := newMockStore()
	sender := &mockSender{}
	s := NewScheduler(st, sender, fixedClock{insideWindow}, nil, testOutreachConfig(1))

	result, err := s.RunCampaign(context.Background(), shelters("a@x.org", "b@x.org"), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.RunOutcomeCompleted, result.Outcome)
	assert.Equal(t, 1, result.Sent)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1, result.Remaining)

	require.NotNil(t, st.committed)
	assert.Equal(t, []string{"a@x.org"}, st.committed.ContactedEmails())
	require.NotNil(t, st.committed.LastRun)
}

func TestRunCampaign_SkipsContactedAndEmaillessRecords(t *testing.T) {
	st := newMockStore()
	st.state.RecordContacted("done@x.org")

	records := []model.ContactRecord{
		{Name: "No Email", Phone: "(512) 555-0142"},
		{Name: "Done", Email: "done@x.org"},
		{Name: "Fresh", Email: "fresh@x.org"},
	}

	sender := &mockSender{}
	s := NewScheduler(st, sender, fixedClock{insideWindow}, nil, testOutreachConfig(10))

	result, err := s.RunCampaign(context.Background(), records, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, []string{"fresh@x.org"}, sender.sent)
}

func TestRunCampaign_QueueExhausted(t *testing.T) {
	st := newMockStore()
	st.state.RecordContacted("a@x.org")

	sender := &mockSender{}
	s := NewScheduler(st, sender, fixedClock{insideWindow}, nil, testOutreachConfig(5))

	result, err := s.RunCampaign(context.Background(), shelters("a@x.org"), RunOptions{})
	require.NoError(t, err)
	assert.True(t, result.Skipped())
	assert.Equal(t, model.SkipReasonQueueExhausted, result.SkipReason)
	assert.Zero(t, st.commits)
}

func TestRunCampaign_SendFailureDoesNotAbortBatch(t *testing.T) {
	st := newMockStore()
	sender := &mockSender{failFor: map[string]error{"b@x.org": assert.AnError}}
	s := NewScheduler(st, sender, fixedClock{insideWindow}, nil, testOutreachConfig(5))

	result, err := s.RunCampaign(context.Background(), shelters("a@x.org", "b@x.org", "c@x.org"), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)

	// The failed contact stays eligible for the next run.
	require.NotNil(t, st.committed)
	assert.False(t, st.committed.IsContacted("b@x.org"))
	assert.True(t, st.committed.IsContacted("a@x.org"))
	assert.True(t, st.committed.IsContacted("c@x.org"))

	require.Len(t, result.Entries, 3)
	assert.Equal(t, model.SendStatusSent, result.Entries[0].Status)
	assert.Equal(t, model.SendStatusFailed, result.Entries[1].Status)
	assert.NotEmpty(t, result.Entries[1].Error)
	assert.Equal(t, model.SendStatusSent, result.Entries[2].Status)
}

func TestRunCampaign_SingleCommitPerRun(t *testing.T) {
	st := newMockStore()
	s := NewScheduler(st, &mockSender{}, fixedClock{insideWindow}, nil, testOutreachConfig(5))

	_, err := s.RunCampaign(context.Background(), shelters("a@x.org", "b@x.org", "c@x.org"), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, st.commits)
}

func TestRunCampaign_CommitFailureIsFatal(t *testing.T) {
	st := newMockStore()
	st.commitErr = assert.AnError
	s := NewScheduler(st, &mockSender{}, fixedClock{insideWindow}, nil, testOutreachConfig(5))

	_, err := s.RunCampaign(context.Background(), shelters("a@x.org"), RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit state")
}

func TestRunCampaign_LimitCapsBelowQuota(t *testing.T) {
	st := newMockStore()
	sender := &mockSender{}
	s := NewScheduler(st, sender, fixedClock{insideWindow}, nil, testOutreachConfig(20))

	result, err := s.RunCampaign(context.Background(), shelters("a@x.org", "b@x.org", "c@x.org"), RunOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 2, result.Remaining)
}

func TestPlan_NoSideEffects(t *testing.T) {
	st := newMockStore()
	st.state.RecordContacted("done@x.org")
	s := NewScheduler(st, nil, fixedClock{insideWindow}, nil, testOutreachConfig(2))

	eligible, batch, err := s.Plan(context.Background(), shelters("done@x.org", "a@x.org", "b@x.org", "c@x.org"), RunOptions{})
	require.NoError(t, err)
	assert.Len(t, eligible, 3)
	assert.Len(t, batch, 2)
	assert.Zero(t, st.commits)
}
