package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cityheat/heatadmin/internal/ingestion"
	"github.com/cityheat/heatadmin/internal/repository"
)

func newIngestCmd() *cobra.Command {
	var (
		datasetID string
		format    string
		batchSize int
		mode      string
		dryRun    bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a building source file (CSV, GeoJSON or XLSX) into a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := newLogger()

			target, err := uuid.Parse(datasetID)
			if err != nil {
				return fmt.Errorf("invalid dataset id %q: %w", datasetID, err)
			}

			ingestMode, err := ingestion.ParseMode(mode)
			if err != nil {
				return err
			}

			cfg, conn, err := connect(ctx, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			if batchSize <= 0 {
				batchSize = cfg.Ingestion.BatchSize
			}

			service := ingestion.NewService(
				repository.NewDatasetRepository(conn.Pool),
				repository.NewBuildingRepository(conn.Pool),
				repository.NewAuditLogRepository(conn.Pool),
				repository.NewIngestionLogRepository(conn.Pool),
				log,
			)

			summary, err := service.Run(ctx, ingestion.Request{
				DatasetID:         target,
				Path:              args[0],
				Format:            ingestion.Format(format),
				BatchSize:         batchSize,
				Mode:              ingestMode,
				DryRun:            dryRun,
				Limit:             limit,
				ErrorDisplayLimit: cfg.Ingestion.ErrorDisplayLimit,
			})
			if err != nil {
				return err
			}

			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetID, "dataset", "d", "", "target dataset id (required)")
	cmd.Flags().StringVarP(&format, "format", "f", string(ingestion.FormatAuto), "source format: csv, geojson, xlsx or auto")
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "records per transaction (default from config)")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(ingestion.ModeCreate), "collision mode: create or update")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate without writing")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many records (0 = unbounded)")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func printSummary(cmd *cobra.Command, summary ingestion.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ingestion %s (%s, %s mode", summary.Status(), summary.Format, summary.Mode)
	if summary.DryRun {
		fmt.Fprint(out, ", dry run")
	}
	fmt.Fprintln(out, ")")
	fmt.Fprintf(out, "  dataset:   %s (%s)\n", summary.DatasetName, summary.DatasetID)
	fmt.Fprintf(out, "  processed: %d\n", summary.Stats.Processed)
	fmt.Fprintf(out, "  created:   %d\n", summary.Stats.Created)
	fmt.Fprintf(out, "  updated:   %d\n", summary.Stats.Updated)
	fmt.Fprintf(out, "  skipped:   %d\n", summary.Stats.Skipped)
	fmt.Fprintf(out, "  errors:    %d\n", summary.Stats.Errors)

	if len(summary.Errors) > 0 {
		fmt.Fprintln(out, "Errors:")
		for _, message := range summary.Errors {
			fmt.Fprintf(out, "  - %s\n", message)
		}
		if summary.ErrorsOmitted > 0 {
			fmt.Fprintf(out, "  ... and %d more\n", summary.ErrorsOmitted)
		}
	}
}
