package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cityheat/heatadmin/internal/domain"
	"github.com/cityheat/heatadmin/internal/repository"
)

func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage datasets",
	}
	cmd.AddCommand(newDatasetCreateCmd())
	cmd.AddCommand(newDatasetListCmd())
	cmd.AddCommand(newDatasetDeleteCmd())
	return cmd
}

func newDatasetCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := newLogger()

			_, conn, err := connect(ctx, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			datasets := repository.NewDatasetRepository(conn.Pool)
			created, err := datasets.Create(ctx, domain.NewDataset(args[0], description))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", created.ID, created.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "optional description")
	return cmd
}

func newDatasetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List datasets with building counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := newLogger()

			_, conn, err := connect(ctx, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			datasets := repository.NewDatasetRepository(conn.Pool)
			buildings := repository.NewBuildingRepository(conn.Pool)

			all, err := datasets.List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, dataset := range all {
				count, err := buildings.CountByDataset(ctx, dataset.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\t%d buildings\n", dataset.ID, dataset.Name, count)
			}
			return nil
		},
	}
}

func newDatasetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a dataset and its buildings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := newLogger()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid dataset id %q: %w", args[0], err)
			}

			_, conn, err := connect(ctx, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			datasets := repository.NewDatasetRepository(conn.Pool)
			if err := datasets.Delete(ctx, id); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}
