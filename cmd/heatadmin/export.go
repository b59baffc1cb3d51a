package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cityheat/heatadmin/internal/export"
	"github.com/cityheat/heatadmin/internal/repository"
)

func newExportCmd() *cobra.Command {
	var (
		datasetID string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a dataset's buildings to a CSV or GeoJSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := newLogger()

			target, err := uuid.Parse(datasetID)
			if err != nil {
				return fmt.Errorf("invalid dataset id %q: %w", datasetID, err)
			}

			_, conn, err := connect(ctx, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			exporter := export.NewExporter(
				repository.NewDatasetRepository(conn.Pool),
				repository.NewBuildingRepository(conn.Pool),
				log,
			)

			result, err := exporter.Run(ctx, export.Request{
				DatasetID: target,
				Path:      args[0],
				Format:    format,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d buildings from %s to %s (%d bytes)\n",
				result.Rows, result.DatasetName, result.Path, result.BytesWritten)
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetID, "dataset", "d", "", "source dataset id (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or geojson")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}
