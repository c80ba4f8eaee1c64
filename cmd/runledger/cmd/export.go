package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/runledger/runledger/internal/config"
	"github.com/runledger/runledger/internal/export"
	"github.com/runledger/runledger/pkg/logging"
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored tables to files or external endpoints",
	Long: `Export reads the stored tables (including the derived run-with-sleep
view) and writes them to flat files, an S3 bucket, or an HTTP event
endpoint. Empty tables are skipped.`,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.PersistentFlags().StringP("tables", "t", "", "comma-separated tables to export (default: runs, sleep, run_with_sleep)")
	exportCmd.PersistentFlags().StringP("output-dir", "o", config.DefaultExportDir, "directory for exported files")
	exportCmd.PersistentFlags().String("token", "", "auth token for streaming endpoints")
	if err := viper.BindPFlags(exportCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("Failed to bind export flags: %v", err))
	}

	for _, format := range []string{export.FormatCSV, export.FormatJSON, export.FormatNDJSON, export.FormatParquet} {
		exportCmd.AddCommand(newFileExportCmd(format))
	}

	s3Cmd.Flags().StringP("format", "f", export.FormatCSV, "file format to upload (csv, json, ndjson, parquet)")
	exportCmd.AddCommand(s3Cmd)
	exportCmd.AddCommand(streamCmd)
	exportCmd.AddCommand(hecCmd)
}

// newFileExportCmd builds one subcommand per flat-file format.
func newFileExportCmd(format string) *cobra.Command {
	return &cobra.Command{
		Use:   format,
		Short: fmt.Sprintf("Export tables as %s files", format),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, reader, closeStore, err := openReader()
			if err != nil {
				return err
			}
			defer closeStore()

			writer := export.NewFileWriter(reader, logging.Default())
			written, err := writer.WriteTables(cmd.Context(), exportTables(cfg), format, cfg.Export.Dir)
			if err != nil {
				return err
			}

			for _, path := range written {
				fmt.Println("Wrote", path)
			}
			return nil
		},
	}
}

// s3Cmd exports tables as files, then uploads them to a bucket.
var s3Cmd = &cobra.Command{
	Use:   "s3 <s3://bucket/prefix>",
	Short: "Export tables and upload them to S3",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, prefix, err := export.ParseS3URL(args[0])
		if err != nil {
			return err
		}

		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}

		cfg, reader, closeStore, err := openReader()
		if err != nil {
			return err
		}
		defer closeStore()

		log := logging.Default()
		writer := export.NewFileWriter(reader, log)
		written, err := writer.WriteTables(cmd.Context(), exportTables(cfg), format, cfg.Export.Dir)
		if err != nil {
			return err
		}

		uploader, err := export.NewUploader(log)
		if err != nil {
			return err
		}

		keys, err := uploader.Upload(cmd.Context(), written, bucket, prefix)
		if err != nil {
			return err
		}

		for _, key := range keys {
			fmt.Printf("Uploaded s3://%s/%s\n", bucket, key)
		}
		return nil
	},
}

// streamCmd sends tables as NDJSON events to an HTTP endpoint.
var streamCmd = &cobra.Command{
	Use:   "stream <endpoint>",
	Short: "Send tables as NDJSON events to an HTTP endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, reader, closeStore, err := openReader()
		if err != nil {
			return err
		}
		defer closeStore()

		streamer := export.NewStreamer(reader, args[0], cfg.Export.Token, logging.Default())
		return streamer.SendNDJSON(cmd.Context(), exportTables(cfg))
	},
}

// hecCmd sends tables to a Splunk-compatible HTTP Event Collector.
var hecCmd = &cobra.Command{
	Use:   "hec <endpoint>",
	Short: "Send tables to a Splunk-compatible HEC endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, reader, closeStore, err := openReader()
		if err != nil {
			return err
		}
		defer closeStore()

		streamer, err := export.NewHECStreamer(reader, args[0], cfg.Export.Token, logging.Default())
		if err != nil {
			return err
		}
		return streamer.SendHEC(cmd.Context(), exportTables(cfg))
	},
}

// openReader resolves configuration and opens a dataset reader over the store.
func openReader() (*config.Config, *export.Reader, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	s, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, export.NewReader(s), func() { s.Close() }, nil
}

func exportTables(cfg *config.Config) []string {
	if len(cfg.Export.Tables) > 0 {
		return cfg.Export.Tables
	}
	return export.DefaultTables
}
