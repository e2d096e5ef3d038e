package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/rollup"
)

func newRollupCmd(configPath *string) *cobra.Command {
	var estateID, date, mode string

	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Build the summary buckets of one estate date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			day := time.Now()
			if date != "" {
				if day, err = domain.ParseDate(date); err != nil {
					return err
				}
			}
			m := a.builder.ModeFor(day)
			if mode != "" {
				if m, err = rollup.ParseMode(mode); err != nil {
					return err
				}
			}

			res, err := a.builder.BuildSummary(cmd.Context(), estateID, day, m)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&estateID, "estate", "", "estate id")
	cmd.Flags().StringVar(&date, "date", "", "date to build, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&mode, "mode", "", "today or historic (default picked from the date)")
	_ = cmd.MarkFlagRequired("estate")
	return cmd
}
