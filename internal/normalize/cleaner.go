package normalize

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
	"github.com/whitecoat-dvm/outreach-cli/internal/source"
)

// Cleaner runs the full combine-and-clean pass over a set of raw
// record sources.
type Cleaner struct {
	// MaxConcurrentSources bounds parallel source reads. Reads are
	// concurrent but results are processed in caller order, because
	// source order is the dedup precedence.
	MaxConcurrentSources int

	now func() time.Time
}

// NewCleaner creates a Cleaner with default concurrency.
func NewCleaner() *Cleaner {
	return &Cleaner{MaxConcurrentSources: 4, now: time.Now}
}

// Clean reads every source, normalizes and deduplicates the records,
// and returns the sorted canonical dataset with derived counts.
//
// An unreadable source is logged and skipped; it never aborts the
// run. Per-record validation failures are counted, not logged.
func (c *Cleaner) Clean(ctx context.Context, sources []source.Source) (*model.CanonicalDataset, model.DatasetStats) {
	batches := make([][]model.RawRecord, len(sources))
	failed := make([]bool, len(sources))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency())

	for i, src := range sources {
		g.Go(func() error {
			records, err := src.Records(gCtx)
			if err != nil {
				zap.L().Warn("clean: skipping unreadable source",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				failed[i] = true
				return nil
			}
			batches[i] = records
			zap.L().Info("clean: source loaded",
				zap.String("source", src.Name()),
				zap.Int("records", len(records)),
			)
			return nil
		})
	}
	_ = g.Wait()

	dataset, stats := c.CleanBatches(batches)
	for _, f := range failed {
		if f {
			stats.SourcesSkipped++
		}
	}

	zap.L().Info("clean: complete",
		zap.Int("raw", stats.RawRecords),
		zap.Int("unique", stats.Total),
		zap.Int("with_email", stats.WithEmail),
		zap.Int("with_phone", stats.WithPhone),
		zap.Int("rejected", stats.Rejected),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("sources_skipped", stats.SourcesSkipped),
	)

	return dataset, stats
}

// CleanBatches normalizes, deduplicates, and sorts the given record
// batches. Batches are processed in order; within the dedup pass the
// first occurrence of a key wins, so earlier batches take precedence
// over later ones.
func (c *Cleaner) CleanBatches(batches [][]model.RawRecord) (*model.CanonicalDataset, model.DatasetStats) {
	var stats model.DatasetStats
	seen := make(map[string]struct{})
	var cleaned []model.ContactRecord

	for _, batch := range batches {
		for _, raw := range batch {
			stats.RawRecords++

			rec := Record(raw)
			if !Admissible(rec) {
				stats.Rejected++
				continue
			}

			key := rec.DedupKey()
			if _, dup := seen[key]; dup {
				stats.Duplicates++
				continue
			}
			seen[key] = struct{}{}
			cleaned = append(cleaned, rec)
		}
	}

	// Sort by state then name. Stable so equal keys keep source order.
	sort.SliceStable(cleaned, func(i, j int) bool {
		if cleaned[i].State != cleaned[j].State {
			return cleaned[i].State < cleaned[j].State
		}
		return cleaned[i].Name < cleaned[j].Name
	})

	now := c.now
	if now == nil {
		now = time.Now
	}
	dataset := &model.CanonicalDataset{
		Records:   cleaned,
		CreatedAt: now().UTC(),
	}

	derived := dataset.Stats()
	stats.Total = derived.Total
	stats.WithEmail = derived.WithEmail
	stats.WithPhone = derived.WithPhone

	return dataset, stats
}

func (c *Cleaner) concurrency() int {
	if c.MaxConcurrentSources > 0 {
		return c.MaxConcurrentSources
	}
	return 4
}
