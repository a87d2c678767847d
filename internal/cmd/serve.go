// SPDX-License-Identifier: MIT

package cmd

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

	"epgshift/internal/api"
	"epgshift/internal/jobs"
	xglog "epgshift/internal/log"
)

// ServeCommand returns the long-running mode: companion API plus the daily
// scheduler, depending on what the configuration enables.
func ServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the companion API and the daily scheduler",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, paths, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.API.Enabled && !cfg.Scheduling.AutoRun {
				return fmt.Errorf("nothing to serve: enable api or scheduling.auto_run")
			}

			logger := xglog.WithComponent("serve")
			ctx, stop := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.New(paths, cfg.API)
			errCh := make(chan error, 1)

			var httpSrv *http.Server
			if cfg.API.Enabled {
				httpSrv = &http.Server{
					Addr:              fmt.Sprintf(":%d", cfg.API.Port),
					Handler:           srv.Router(),
					ReadHeaderTimeout: 10 * time.Second,
				}
				go func() {
					logger.Info().Str("addr", httpSrv.Addr).Msg("API listening")
					if err := httpSrv.ListenAndServe(); err != nil &&
						!errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
				}()
			}

			if cfg.Scheduling.AutoRun {
				loc, err := time.LoadLocation(cfg.Scheduling.Timezone)
				if err != nil {
					loc = time.Local
				}
				sched := &jobs.Scheduler{
					RunTime:  cfg.Scheduling.RunTime,
					Location: loc,
					Trigger: func(ctx context.Context) error {
						_, err := srv.RunNow(ctx)
						return err
					},
				}
				go func() { _ = sched.Run(ctx) }()
			}

			select {
			case <-ctx.Done():
				logger.Info().Msg("shutting down")
			case err := <-errCh:
				return fmt.Errorf("api server: %w", err)
			}

			if httpSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := httpSrv.Shutdown(shutdownCtx); err != nil {
					logger.Warn().Err(err).Msg("api shutdown incomplete")
				}
			}
			return nil
		},
	}
}
