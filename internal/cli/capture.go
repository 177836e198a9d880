package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/dfanalyzer/internal/server"
	"github.com/spf13/cobra"
)

func newCaptureCmd() *cobra.Command {
	var addr, dbPath string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Run a local capture server that records provenance documents",
		Long: "Run a local stand-in for the provenance store. It accepts task and dataflow " +
			"documents on the same endpoints and journals them in SQLite for inspection.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Capture.Addr
			}
			st, err := openStore(cmd, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(st, logger)
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("capture server listening", "addr", addr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("listen: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :22000)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Capture database path (default ~/.dfa/capture.db or DFA_CAPTURE_DB)")
	return cmd
}
