package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/whitecoat-dvm/outreach-cli/internal/dataset"
	"github.com/whitecoat-dvm/outreach-cli/internal/normalize"
	"github.com/whitecoat-dvm/outreach-cli/internal/source"
)

var cleanSources []string

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Combine raw contact sources into a canonical dataset snapshot",
	Long: `Reads the given sources in order, normalizes and deduplicates the
records, and writes a timestamped CLEAN_ snapshot (CSV + JSON mirror)
into the output directory.

Source order matters: when two sources carry the same contact, the
earlier source wins.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if len(cleanSources) == 0 {
			return eris.New("at least one --source is required")
		}

		sources := make([]source.Source, 0, len(cleanSources))
		for _, arg := range cleanSources {
			src, err := buildSource(arg)
			if err != nil {
				return err
			}
			sources = append(sources, src)
		}

		cleaner := normalize.NewCleaner()
		ds, st := cleaner.Clean(ctx, sources)

		csvPath, jsonPath, err := dataset.NewWriter(cfg.Dataset.OutputDir).Write(ds)
		if err != nil {
			return eris.Wrap(err, "write snapshot")
		}

		zap.L().Info("clean complete",
			zap.Int("unique", st.Total),
			zap.Int("with_email", st.WithEmail),
			zap.Int("with_phone", st.WithPhone),
			zap.Int("raw", st.RawRecords),
			zap.Int("rejected", st.Rejected),
			zap.Int("duplicates", st.Duplicates),
			zap.Int("sources_skipped", st.SourcesSkipped),
			zap.String("csv", csvPath),
			zap.String("json", jsonPath),
		)
		return nil
	},
}

// buildSource maps a --source argument to a Source by URL scheme or
// file extension.
func buildSource(arg string) (source.Source, error) {
	switch {
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		return source.NewHTTPCSV(arg), nil
	case strings.HasSuffix(arg, ".csv"):
		return source.NewCSVFile(arg), nil
	case strings.HasSuffix(arg, ".json"):
		return source.NewJSONFile(arg), nil
	case strings.HasSuffix(arg, ".xlsx"):
		return source.NewXLSXFile(arg), nil
	default:
		return nil, eris.Errorf("unsupported source %q (want .csv, .json, .xlsx, or an http URL)", arg)
	}
}

func init() {
	cleanCmd.Flags().StringArrayVar(&cleanSources, "source", nil, "raw record source, repeatable; order sets dedup precedence")
	rootCmd.AddCommand(cleanCmd)
}
