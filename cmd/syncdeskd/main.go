// Package main provides the syncdesk daemon. Local clients talk to it over
// REST/WebSocket on localhost; the daemon owns the store, the action queue
// and the background sync loop.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jchang/syncdesk/internal/config"
	"github.com/jchang/syncdesk/internal/logging"
)

var configPath string

func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "syncdeskd",
		Short:         "Offline-first document sync daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(serveCmd(), syncCmd(), statsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	initLogging(cfg)
	return cfg, nil
}

func initLogging(cfg *config.Config) {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
	}
	logging.Init(out, logging.ParseLevel(cfg.LogLevel))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon with the REST API and background sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app.scheduler.Start(ctx)
			defer app.scheduler.Stop()

			server := &http.Server{
				Addr:    cfg.ListenAddr,
				Handler: app.routes(),
			}

			errCh := make(chan error, 1)
			go func() {
				logging.Info("Daemon listening",
					map[string]interface{}{"addr": cfg.ListenAddr})
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
				logging.Info("Shutting down", nil)
				return server.Shutdown(context.Background())
			}
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.engine.TriggerSync(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(stats)
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print queue and storage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			syncStats, err := app.engine.Stats().Recompute()
			if err != nil {
				return err
			}
			storage, err := app.store.EstimateUsage()
			if err != nil {
				return err
			}

			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"sync":    syncStats,
				"storage": storage,
			})
		},
	}
}
