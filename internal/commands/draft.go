package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/access"
	"github.com/cleared-dev/tally/internal/activity"
	"github.com/cleared-dev/tally/internal/draft"
	"github.com/cleared-dev/tally/internal/stock"
)

func newDraftCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Build and submit sales and purchases",
	}
	cmd.AddCommand(newDraftSubmitCommand(a))
	return cmd
}

func newDraftSubmitCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Stage a draft file line by line and submit it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDraftSubmit(cmd.Context(), cmd.OutOrStdout(), file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "draft file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *app) runDraftSubmit(ctx context.Context, w io.Writer, path string) error {
	df, err := loadDraftFile(path)
	if err != nil {
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	ctx, sess, err := a.signIn(ctx, c)
	if err != nil {
		return err
	}

	b, err := draft.New(draft.Options{
		Kind:          df.Kind,
		Admission:     stock.NewChecker(c),
		Submitter:     c,
		PriceEditable: access.Authorize(sess.Grant(), access.EditPrices),
		DefaultLevies: a.cfg.Levies,
		Now:           a.now,
	})
	if err != nil {
		return err
	}
	if err := df.apply(ctx, b); err != nil {
		return err
	}

	receipt, err := b.Submit(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Submitted %s\n", receipt.Code)
	printTotals(w, receipt.Totals)

	a.record(activity.Entry{
		User:    sess.UserID(),
		Action:  activity.ActionSubmit,
		Code:    receipt.Code,
		Amount:  receipt.Totals.GrandTotal,
		Details: fmt.Sprintf("%s at %s for %s", df.Kind, df.Location, df.Counterpart),
	})
	return nil
}
