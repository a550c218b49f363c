package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/whitecoat-dvm/outreach-cli/internal/dataset"
	"github.com/whitecoat-dvm/outreach-cli/internal/model"
	"github.com/whitecoat-dvm/outreach-cli/internal/outreach"
	"github.com/whitecoat-dvm/outreach-cli/internal/runlog"
	"github.com/whitecoat-dvm/outreach-cli/internal/store"
	"github.com/whitecoat-dvm/outreach-cli/pkg/sendgrid"
)

var (
	runForce  bool
	runDryRun bool
	runLimit  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one outreach campaign invocation",
	Long: `Loads the newest canonical snapshot, picks the next batch of
uncontacted shelters, and emails them through SendGrid.

Outside the configured weekday/hour window the invocation is skipped
unless --force is given. --dry-run shows the batch that would be sent
without sending or persisting anything.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		records, path, err := loadLatestDataset()
		if err != nil {
			return err
		}
		zap.L().Info("run: dataset loaded",
			zap.String("path", path),
			zap.Int("records", len(records)),
		)

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open state store")
		}
		defer st.Close() //nolint:errcheck

		if runDryRun {
			return dryRun(cmd, st, records)
		}

		if cfg.SendGrid.Key == "" {
			return eris.New("sendgrid key is not configured (set OUTREACH_SENDGRID_KEY)")
		}

		lock, err := outreach.AcquireLock(cfg.Outreach.LockPath)
		if err != nil {
			return err
		}
		defer lock.Release() //nolint:errcheck

		tmpl, err := loadTemplate()
		if err != nil {
			return err
		}

		client := sendgrid.NewClient(cfg.SendGrid.Key, sendgrid.WithBaseURL(cfg.SendGrid.BaseURL))
		sender := outreach.NewEmailSender(client, tmpl, cfg.Outreach)
		scheduler := outreach.NewScheduler(st, sender, nil, runlog.NewWriter(cfg.Dataset.OutputDir), cfg.Outreach)

		result, err := scheduler.RunCampaign(ctx, records, outreach.RunOptions{
			Force: runForce,
			Limit: runLimit,
		})
		if err != nil {
			return err
		}

		if result.Skipped() {
			cmd.Printf("Run %s skipped: %s\n", result.RunID, result.SkipReason)
			return nil
		}
		cmd.Printf("Run %s complete: %d sent, %d failed, %d remaining\n",
			result.RunID, result.Sent, result.Failed, result.Remaining)
		return nil
	},
}

// dryRun prints the batch the scheduler would dispatch without side
// effects.
func dryRun(cmd *cobra.Command, st store.Store, records []model.ContactRecord) error {
	scheduler := outreach.NewScheduler(st, nil, nil, nil, cfg.Outreach)
	eligible, batch, err := scheduler.Plan(cmd.Context(), records, outreach.RunOptions{
		Force: runForce,
		Limit: runLimit,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Dry run: %d eligible, next batch of %d:\n", len(eligible), len(batch))
	for i, c := range batch {
		cmd.Printf("  %2d. %s <%s> (%s, %s)\n", i+1, c.Name, c.Email, c.City, c.State)
	}
	return nil
}

// loadLatestDataset finds and reads the newest CLEAN_ snapshot.
func loadLatestDataset() ([]model.ContactRecord, string, error) {
	path, err := dataset.Latest(cfg.Dataset.OutputDir)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return nil, "", eris.Errorf("no dataset snapshot in %s, run `outreach-cli clean` first", cfg.Dataset.OutputDir)
	}
	records, err := dataset.Load(path)
	if err != nil {
		return nil, "", err
	}
	return records, path, nil
}

// loadTemplate reads the configured template file, falling back to the
// built-in partnership pitch when the file is absent.
func loadTemplate() (*outreach.Template, error) {
	if cfg.Template.Path != "" {
		tmpl, err := outreach.LoadTemplate(cfg.Template.Path)
		if err == nil {
			return tmpl, nil
		}
		if !os.IsNotExist(eris.Cause(err)) {
			return nil, err
		}
		zap.L().Debug("run: template file absent, using built-in",
			zap.String("path", cfg.Template.Path),
		)
	}
	return outreach.DefaultTemplate(), nil
}

func init() {
	runCmd.Flags().BoolVar(&runForce, "force", false, "bypass the weekday/hour sending window")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "show the next batch without sending")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "cap the batch below the daily quota")
	rootCmd.AddCommand(runCmd)
}
