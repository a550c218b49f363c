package runlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

var day = time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

func entry(name, email string, status model.SendStatus) model.RunLogEntry {
	return model.RunLogEntry{Name: name, Email: email, Status: status, Timestamp: day}
}

func TestAppend_CreatesDailyFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.Append(day, []model.RunLogEntry{entry("A", "a@x.org", model.SendStatusSent)})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daily_logs", "2026-08-28.json"), path)

	entries, err := ReadAll(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a@x.org", entries[0].Email)
}

func TestAppend_MergesSameDayRuns(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	_, err := w.Append(day, []model.RunLogEntry{entry("A", "a@x.org", model.SendStatusSent)})
	require.NoError(t, err)
	_, err = w.Append(day.Add(2*time.Hour), []model.RunLogEntry{entry("B", "b@x.org", model.SendStatusFailed)})
	require.NoError(t, err)

	entries, err := ReadAll(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a@x.org", entries[0].Email, "earlier run's entries preserved first")
	assert.Equal(t, "b@x.org", entries[1].Email)
}

func TestReadAll_NewestDayFirst(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	_, err := w.Append(day.AddDate(0, 0, -1), []model.RunLogEntry{entry("Old", "old@x.org", model.SendStatusSent)})
	require.NoError(t, err)
	_, err = w.Append(day, []model.RunLogEntry{entry("New", "new@x.org", model.SendStatusSent)})
	require.NoError(t, err)

	entries, err := ReadAll(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new@x.org", entries[0].Email)
	assert.Equal(t, "old@x.org", entries[1].Email)
}

func TestReadAll_MissingDir(t *testing.T) {
	entries, err := ReadAll(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadAll_SkipsUnparseableFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	_, err := w.Append(day, []model.RunLogEntry{entry("A", "a@x.org", model.SendStatusSent)})
	require.NoError(t, err)

	logsDir := filepath.Join(dir, "daily_logs")
	require.NoError(t, os.WriteFile(filepath.Join(logsDir, "2026-08-27.json"), []byte("{broken"), 0o644))

	entries, err := ReadAll(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
