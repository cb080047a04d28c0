package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/money"
)

func newTotalsCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Preview the totals of a draft file without contacting the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTotals(cmd.OutOrStdout(), file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "draft file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *app) runTotals(w io.Writer, path string) error {
	df, err := loadDraftFile(path)
	if err != nil {
		return err
	}

	levies := df.levies(a.cfg.Levies)
	if err := money.ValidateDiscount(df.Discount); err != nil {
		return err
	}
	if err := money.ValidateLevies(levies); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s at %s, %d lines\n", df.Kind, df.Location, len(df.Lines))
	printTotals(w, money.ComputeTotals(df.Lines, df.Discount, levies))
	return nil
}
