package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rms-insight-workers/internal/common/logger"
	"rms-insight-workers/internal/insights"
	"rms-insight-workers/internal/models"
	"rms-insight-workers/internal/store/sqlite"
)

// document is the build input file: the datasets plus the dashboard filter,
// in the same shape the build worker receives as job variables.
type document struct {
	insights.Inputs
	Channels         []string    `json:"channels"`
	SelectedProperty models.Text `json:"selectedProperty"`
	OtaRankEnabled   bool        `json:"otaRankEnabled"`
}

type buildResult struct {
	RunID   string              `json:"runId"`
	Rows    []models.InsightRow `json:"rows"`
	Summary insights.Summary    `json:"summary"`
}

type buildFlags struct {
	input            string
	format           string
	benchmark        string
	channels         []string
	selectedProperty string
	otaRank          bool
	maxRanked        int
	history          string
}

func newBuildCmd(getLogger func() logger.Logger) *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and sort the insight table from a JSON input file",
		Example: `  insights-cli build --input march.json
  insights-cli build --input march.json --format csv --channels Brand.com,Expedia
  cat march.json | insights-cli build --input - --history runs.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.format != "json" && f.format != "csv" {
				return fmt.Errorf("unsupported format %q (json or csv)", f.format)
			}

			doc, err := readDocument(cmd.InOrStdin(), f.input)
			if err != nil {
				return err
			}

			opts := insights.Options{
				Channels:             doc.Channels,
				SelectedProperty:     doc.SelectedProperty.String(),
				BenchmarkChannel:     f.benchmark,
				OtaRankEnabled:       doc.OtaRankEnabled,
				MaxRankedCompetitors: f.maxRanked,
			}
			if cmd.Flags().Changed("channels") {
				opts.Channels = f.channels
			}
			if cmd.Flags().Changed("selected-property") {
				opts.SelectedProperty = f.selectedProperty
			}
			if cmd.Flags().Changed("ota-rank") {
				opts.OtaRankEnabled = f.otaRank
			}

			start := time.Now()
			result := buildTable(doc.Inputs, opts)
			getLogger().Info("insight table built", map[string]interface{}{
				"runId":       result.RunID,
				"rows":        len(result.Rows),
				"statements":  result.Summary.Statements,
				"duration_ms": time.Since(start).Milliseconds(),
			})

			if f.history != "" {
				if err := recordRun(cmd.Context(), f.history, f.input, result); err != nil {
					return fmt.Errorf("record run: %w", err)
				}
			}
			return writeResult(cmd.OutOrStdout(), f.format, result)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "-", "input JSON file, - for stdin")
	cmd.Flags().StringVarP(&f.format, "format", "f", "json", "output format: json or csv")
	cmd.Flags().StringVar(&f.benchmark, "benchmark", insights.DefaultBenchmarkChannel, "benchmark channel of the channel filter")
	cmd.Flags().StringSliceVar(&f.channels, "channels", nil, "channel filter, overrides the input file")
	cmd.Flags().StringVar(&f.selectedProperty, "selected-property", "", "property for OTA rank entries, overrides the input file")
	cmd.Flags().BoolVar(&f.otaRank, "ota-rank", false, "enable OTA rank drop statements, overrides the input file")
	cmd.Flags().IntVar(&f.maxRanked, "max-ranked", insights.DefaultMaxRankedCompetitors, "priced entries considered for the subscriber rank")
	cmd.Flags().StringVar(&f.history, "history", "", "SQLite file to record the run in")
	return cmd
}

func readDocument(stdin io.Reader, path string) (*document, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		r = file
	}

	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return &doc, nil
}

func buildTable(in insights.Inputs, opts insights.Options) buildResult {
	rows := insights.SortRows(insights.BuildRows(in, opts))
	return buildResult{
		RunID:   uuid.NewString(),
		Rows:    rows,
		Summary: insights.Summarize(rows),
	}
}

func writeResult(w io.Writer, format string, result buildResult) error {
	if format == "csv" {
		return insights.WriteCSV(w, result.Rows)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func recordRun(ctx context.Context, path, source string, result buildResult) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := sqlite.New(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.RecordRun(ctx, sqlite.Run{
		ID:         result.RunID,
		Source:     source,
		RowCount:   len(result.Rows),
		UrgentRows: len(insights.UrgentRows(result.Rows)),
		Summary:    result.Summary,
	})
}
