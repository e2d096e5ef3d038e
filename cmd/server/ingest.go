package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/transactionprocessing/estatereporting/internal/ingestion"
)

func newIngestCmd(configPath *string) *cobra.Command {
	var estateID, file string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Record an upstream batch file (json or yaml)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			batch, err := ingestion.ParseBatchFile(file)
			if err != nil {
				return err
			}
			res, err := a.ingestion.Record(cmd.Context(), estateID, batch)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&estateID, "estate", "", "estate id")
	cmd.Flags().StringVar(&file, "file", "", "batch file path")
	_ = cmd.MarkFlagRequired("estate")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
