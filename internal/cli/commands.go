package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/internal/performance"
	"taskflow/internal/report"
	"taskflow/internal/timeclock"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and seed an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := a.seedIfEmpty(cmd.Context(), store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", a.cfg.DB.Path)
			return nil
		},
	}
}

func newPerformanceCmd(a *app) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "performance",
		Short: "Print delivery scores of the team",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			scorer := performance.New(store, a.logger)

			var scores []performance.UserScore
			if userID != 0 {
				u, err := store.GetUser(ctx, userID)
				if err != nil {
					return err
				}
				sc, err := scorer.Score(ctx, u)
				if err != nil {
					return err
				}
				scores = []performance.UserScore{sc}
			} else {
				scores, err = scorer.All(ctx)
				if err != nil {
					return err
				}
			}
			return report.Scores(cmd.OutOrStdout(), scores)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "only score the member with this id")
	return cmd
}

func newAttendanceCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Print the monthly punch clock summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := timeclock.New(store, a.logger).MonthlySummary(cmd.Context(), month)
			if err != nil {
				return err
			}
			return report.Punches(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	return cmd
}
