package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/ledgerstub"
)

func newStubCommand(a *app) *cobra.Command {
	var addr, seedPath, chartPath string

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve an in-memory ledger for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := buildStub(seedPath, chartPath)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), addr, srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8089", "listen address")
	cmd.Flags().StringVar(&seedPath, "seed", "", "seed file (default built-in shop)")
	cmd.Flags().StringVar(&chartPath, "chart", "", "chart of accounts CSV (default built-in chart)")

	return cmd
}

func buildStub(seedPath, chartPath string) (*ledgerstub.Server, error) {
	seed := ledgerstub.DefaultSeed()
	if seedPath != "" {
		var err error
		if seed, err = ledgerstub.LoadSeed(seedPath); err != nil {
			return nil, err
		}
	}

	var (
		chart *accounts.Chart
		err   error
	)
	if chartPath != "" {
		chart, err = accounts.LoadFile(chartPath)
	} else {
		chart, err = accounts.NewChart(accounts.DefaultChart())
	}
	if err != nil {
		return nil, err
	}

	return ledgerstub.NewServer(ledgerstub.NewStore(seed, chart)), nil
}

// serve runs h on addr until ctx ends or the process is interrupted.
func (a *app) serve(ctx context.Context, addr string, h http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpSrv.ListenAndServe()
	}()
	a.log.Info().Str("addr", addr).Msg("ledger stub listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
