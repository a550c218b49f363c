package main

import (
	"context"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/whitecoat-dvm/outreach-cli/internal/runlog"
	"github.com/whitecoat-dvm/outreach-cli/internal/stats"
	"github.com/whitecoat-dvm/outreach-cli/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show outreach progress for the active dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		summary, err := buildSummary(cmd.Context())
		if err != nil {
			return err
		}
		renderSummary(cmd, summary)
		return nil
	},
}

// buildSummary assembles the dashboard data from the newest snapshot,
// the state store, and the run-log history.
func buildSummary(ctx context.Context) (stats.Summary, error) {
	records, path, err := loadLatestDataset()
	if err != nil {
		return stats.Summary{}, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return stats.Summary{}, eris.Wrap(err, "open state store")
	}
	defer st.Close() //nolint:errcheck

	state, err := st.Load(ctx)
	if err != nil {
		return stats.Summary{}, err
	}

	logs, err := runlog.ReadAll(cfg.Dataset.OutputDir)
	if err != nil {
		return stats.Summary{}, err
	}

	summary := stats.Build(records, state, logs, 0, 0)
	summary.DatasetPath = path
	return summary, nil
}

func renderSummary(cmd *cobra.Command, s stats.Summary) {
	out := cmd.OutOrStdout()

	overview := table.NewWriter()
	overview.SetOutputMirror(out)
	overview.SetTitle("Outreach Overview")
	overview.AppendRow(table.Row{"Dataset", s.DatasetPath})
	if s.LastRun != nil {
		overview.AppendRow(table.Row{"Last run", s.LastRun.Local().Format("2006-01-02 15:04")})
	} else {
		overview.AppendRow(table.Row{"Last run", "never"})
	}
	overview.AppendRow(table.Row{"Total shelters", s.Total})
	overview.AppendRow(table.Row{"With email", s.WithEmail})
	overview.AppendRow(table.Row{"With phone", s.WithPhone})
	overview.AppendRow(table.Row{"Contacted", s.Contacted})
	overview.AppendRow(table.Row{"Remaining", s.Remaining})
	overview.SetStyle(table.StyleLight)
	overview.Render()

	if len(s.ByState) > 0 {
		byState := table.NewWriter()
		byState.SetOutputMirror(out)
		byState.SetTitle("By State")
		byState.AppendHeader(table.Row{"State", "Shelters", ""})
		max := s.ByState[0].Count
		for _, sc := range s.ByState {
			byState.AppendRow(table.Row{sc.State, sc.Count, bar(sc.Count, max, 30)})
		}
		byState.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
		})
		byState.SetStyle(table.StyleLight)
		byState.Render()
	}

	if len(s.RecentlySent) > 0 {
		recent := table.NewWriter()
		recent.SetOutputMirror(out)
		recent.SetTitle("Recently Contacted")
		recent.AppendHeader(table.Row{"When", "Shelter", "Email"})
		for _, e := range s.RecentlySent {
			recent.AppendRow(table.Row{e.Timestamp.Local().Format("2006-01-02 15:04"), e.Name, e.Email})
		}
		recent.SetStyle(table.StyleLight)
		recent.Render()
	}

	if len(s.NextUp) > 0 {
		next := table.NewWriter()
		next.SetOutputMirror(out)
		next.SetTitle("Next Up")
		next.AppendHeader(table.Row{"Shelter", "Email", "State"})
		for _, c := range s.NextUp {
			next.AppendRow(table.Row{c.Name, c.Email, c.State})
		}
		next.SetStyle(table.StyleLight)
		next.Render()
	}
}

// bar renders a proportional text bar for the by-state table.
func bar(n, max, width int) string {
	if max <= 0 {
		return ""
	}
	filled := n * width / max
	if filled == 0 && n > 0 {
		filled = 1
	}
	return strings.Repeat("#", filled)
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
