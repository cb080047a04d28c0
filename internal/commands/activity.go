package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/activity"
	"github.com/cleared-dev/tally/internal/money"
)

func newActivityCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show what this client has changed in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.ActivityLog == "" {
				return fmt.Errorf("activity_log is not configured")
			}
			entries, err := activity.Read(a.cfg.ActivityLog)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, "No activity recorded")
				return nil
			}
			for _, e := range entries {
				amount := ""
				if !e.Amount.IsZero() {
					amount = money.Format(e.Amount)
				}
				fmt.Fprintf(w, "%s  %-10s %-15s %-18s %10s  %s\n",
					e.Timestamp.Format("2006-01-02 15:04"), e.User, e.Action, e.Code, amount, e.Details)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the last n entries")

	return cmd
}
