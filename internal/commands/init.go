package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/ledgerstub"
)

func newInitCommand() *cobra.Command {
	var serviceURL string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter tally.yaml, chart of accounts and stub seed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, serviceURL)
		},
	}

	cmd.Flags().StringVar(&serviceURL, "service-url", "", "ledger service URL (default the local stub)")

	return cmd
}

func runInit(w io.Writer, dir, serviceURL string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfgPath := filepath.Join(dir, "tally.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	seed := ledgerstub.DefaultSeed()

	// Write tally.yaml.
	cfg := config.Default()
	if serviceURL != "" {
		cfg.Service.URL = serviceURL
	}
	cfg.Locations = seed.Locations
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write chart of accounts.
	chart, err := accounts.NewChart(accounts.DefaultChart())
	if err != nil {
		return fmt.Errorf("building chart of accounts: %w", err)
	}
	if err := chart.SaveFile(filepath.Join(dir, "accounts.csv")); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	// Write the stub's seed.
	if err := ledgerstub.SaveSeed(filepath.Join(dir, "seed.yaml"), seed); err != nil {
		return fmt.Errorf("writing seed: %w", err)
	}

	// Write .gitignore.
	gitignore := ".env\nactivity.csv\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Fprintf(w, "Initialized tally at %s\n", dir)
	return nil
}
