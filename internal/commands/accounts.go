package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/activity"
	"github.com/cleared-dev/tally/internal/session"
)

func newAccountsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Browse and extend the chart of accounts",
	}
	cmd.AddCommand(
		newAccountsListCommand(a),
		newAccountsSearchCommand(a),
		newAccountsCreateCommand(a),
		newAccountsRenameCommand(a),
	)
	return cmd
}

func newAccountsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the chart of accounts as a tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _, _, err := a.directory(cmd.Context())
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), dir.Chart().Tree(), 0)
			return nil
		},
	}
}

func newAccountsSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find accounts by name or code, keeping their ancestors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _, _, err := a.directory(cmd.Context())
			if err != nil {
				return err
			}
			nodes := dir.Search(args[0])
			if len(nodes) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No accounts match %q\n", args[0])
				return nil
			}
			printTree(cmd.OutOrStdout(), nodes, 0)
			return nil
		},
	}
}

func newAccountsCreateCommand(a *app) *cobra.Command {
	var req accounts.CreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a real account, and its sub account if --sub-name is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAccountsCreate(cmd.Context(), cmd.OutOrStdout(), req)
		},
	}

	cmd.Flags().StringVar(&req.ParentCode, "parent", "", "parent account code (required)")
	cmd.Flags().StringVar(&req.SubCode, "sub", "", "existing sub account code")
	cmd.Flags().StringVar(&req.SubName, "sub-name", "", "name of a new sub account")
	cmd.Flags().StringVar(&req.RealName, "name", "", "account name (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "account description")
	cmd.MarkFlagsMutuallyExclusive("sub", "sub-name")
	_ = cmd.MarkFlagRequired("parent")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func (a *app) runAccountsCreate(ctx context.Context, w io.Writer, req accounts.CreateRequest) error {
	dir, ctx, sess, err := a.directory(ctx)
	if err != nil {
		return err
	}
	created, err := dir.Create(ctx, req)
	if err != nil {
		return err
	}
	for _, acct := range created {
		fmt.Fprintf(w, "Created %s %s (%s)\n", acct.Code, acct.Name, acct.Level)
		a.record(activity.Entry{
			User:    sess.UserID(),
			Action:  activity.ActionCreateAccount,
			Code:    acct.Code,
			Details: acct.Name,
		})
	}
	return nil
}

func newAccountsRenameCommand(a *app) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "rename <code>",
		Short: "Change an account's name and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, ctx, sess, err := a.directory(cmd.Context())
			if err != nil {
				return err
			}
			acct, err := dir.Rename(ctx, args[0], name, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", acct.Code, acct.Name)
			a.record(activity.Entry{
				User:    sess.UserID(),
				Action:  activity.ActionRenameAccount,
				Code:    acct.Code,
				Details: acct.Name,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name (required)")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// directory signs in and loads the ledger's chart.
func (a *app) directory(ctx context.Context) (*accounts.Directory, context.Context, session.Session, error) {
	c, err := a.client()
	if err != nil {
		return nil, nil, session.Session{}, err
	}
	ctx, sess, err := a.signIn(ctx, c)
	if err != nil {
		return nil, nil, session.Session{}, err
	}
	dir := accounts.NewDirectory(c)
	if _, err := dir.Refresh(ctx); err != nil {
		return nil, nil, session.Session{}, err
	}
	return dir, ctx, sess, nil
}

func printTree(w io.Writer, nodes []accounts.Node, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s  %s\n", strings.Repeat("  ", depth), n.Account.Code, n.Account.Name)
		printTree(w, n.Children, depth+1)
	}
}
