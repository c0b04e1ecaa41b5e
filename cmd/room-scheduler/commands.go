package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/service"
	"github.com/noah-isme/sma-room-scheduler/pkg/config"
	"github.com/noah-isme/sma-room-scheduler/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "room-scheduler",
		Short:         "Room schedule conflict detection and availability service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt.cfg = cfg
			rt.logger = logr
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}
	root.AddCommand(serveCommand(rt), scanCommand(rt))
	return root
}

func serveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background conflict monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, logr := rt.cfg, rt.logger
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := newApplication(ctx, cfg, logr, true)
	if err != nil {
		return err
	}
	defer app.close()

	if cfg.Conflicts.MonitorEnabled {
		app.monitor.Start(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logr.Sugar().Infow("shutdown requested")
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("http shutdown incomplete", "error", err)
	}
	if err := app.monitor.Stop(); err != nil {
		logr.Sugar().Warnw("conflict monitor stop", "error", err)
	}
	return runErr
}

func scanCommand(rt *runtime) *cobra.Command {
	var (
		adminID   string
		notifyAll bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one conflict scan and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context(), rt.cfg, rt.logger, false)
			if err != nil {
				return err
			}
			defer app.close()

			report, err := app.monitor.Scan(cmd.Context(), service.ScanOptions{
				AdminID:   adminID,
				NotifyAll: notifyAll,
				Manual:    true,
			})
			if report != nil {
				out, merr := json.MarshalIndent(report, "", "  ")
				if merr != nil {
					return merr
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&adminID, "admin-id", "", "administrator receiving notifications (default CONFLICT_ADMIN_ID)")
	cmd.Flags().BoolVar(&notifyAll, "notify-all", false, "notify every detected conflict, not only new ones")
	return cmd
}
