package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/guregu/null.v3"

	"github.com/runledger/runledger/internal/pipeline"
	"github.com/runledger/runledger/pkg/logging"
)

// ingestCmd represents the ingest command.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest Strava, Garmin, and Oura exports into the store",
	Long: `Ingest scans the data directory for provider export archives, loads
runs and sleep records into the store, and enriches Strava runs with
physiological metrics from matching Garmin activities.

Missing providers are skipped with a warning; each present provider is
loaded in full. Re-running ingest over the same archives is a no-op.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	log := logging.Default()
	ctx := logging.WithLogger(cmd.Context(), log)
	result, err := pipeline.New(s, log).Ingest(ctx, cfg.DataDir)
	if err != nil {
		return err
	}

	printIngestResult(result)
	return nil
}

func printIngestResult(result *pipeline.Result) {
	fmt.Println("Ingestion complete:")

	table := tablewriter.NewTable(os.Stdout)
	table.Header("Source", "Parsed", "Skipped")
	table.Append("strava", strconv.Itoa(result.Strava.Parsed), strconv.Itoa(result.Strava.Skipped))
	table.Append("garmin", strconv.Itoa(result.Garmin.Parsed), strconv.Itoa(result.Garmin.Skipped))
	table.Append("oura", strconv.Itoa(result.Oura.Parsed), strconv.Itoa(result.Oura.Skipped))
	table.Render()

	fmt.Printf("\nEnriched %d runs with Garmin metrics\n\n", result.Enriched)

	summary := result.Summary
	table = tablewriter.NewTable(os.Stdout)
	table.Header("Metric", "Value")
	table.Append("Runs", strconv.Itoa(summary.RunCount))
	table.Append("Date range", dateRange(summary.MinDate, summary.MaxDate))
	table.Append("Total distance (km)", nullFloatCell(summary.TotalKm))
	table.Append("Runs with sleep data", strconv.Itoa(summary.RunsWithSleep))
	table.Append("Runs with Garmin data", strconv.Itoa(summary.EnrichedRuns))
	table.Append("Long runs", strconv.Itoa(summary.LongRuns))
	table.Append("Gels estimated", nullIntCell(summary.TotalGels))
	table.Append("Carbs estimated (g)", nullIntCell(summary.TotalCarbsG))
	table.Render()
}

func dateRange(min, max null.String) string {
	if !min.Valid || !max.Valid {
		return "-"
	}
	return fmt.Sprintf("%s to %s", min.String, max.String)
}

func nullFloatCell(v null.Float) string {
	if !v.Valid {
		return "-"
	}
	return strconv.FormatFloat(v.Float64, 'f', 1, 64)
}

func nullIntCell(v null.Int) string {
	if !v.Valid {
		return "-"
	}
	return strconv.FormatInt(v.Int64, 10)
}
