package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/activity"
	"github.com/cleared-dev/tally/internal/reversal"
)

func newReverseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <code>",
		Short: "Reverse a submitted sale or purchase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, sess, err := a.signIn(cmd.Context(), c)
			if err != nil {
				return err
			}

			doc, err := reversal.NewService(c).Reverse(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reversed %s (%s)\n", doc.Code, doc.Status)
			a.record(activity.Entry{
				User:    sess.UserID(),
				Action:  activity.ActionReverse,
				Code:    doc.Code,
				Amount:  doc.Totals.GrandTotal,
				Details: fmt.Sprintf("%s at %s for %s", doc.Kind, doc.Location, doc.Counterpart),
			})
			return nil
		},
	}
}
