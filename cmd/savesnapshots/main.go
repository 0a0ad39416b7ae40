package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/SteamServerUI/SaveSnapshotManager/backupmgr"
	"github.com/SteamServerUI/SaveSnapshotManager/config"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "savesnapshots",
	Short: "Watch game saves and archive each one after it settles",
}

type app struct {
	file    config.File
	log     hclog.Logger
	metrics *backupmgr.Metrics
	manager *backupmgr.BackupManager
}

// load reads the config file and builds a manager with its logger and metrics.
func load() (*app, error) {
	f, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	settings, err := f.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving config: %w", err)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "savesnapshots",
		Level: hclog.LevelFromString(f.LogLevel),
	})
	metrics := backupmgr.NewMetrics()
	return &app{
		file:    f,
		log:     logger,
		metrics: metrics,
		manager: backupmgr.NewBackupManager(backupmgr.NewBackupConfig(settings), logger, metrics),
	}, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch saves until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load()
		if err != nil {
			return err
		}
		logger, manager := a.log, a.manager

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if addr := a.file.MetricsAddr; addr != "" {
			srv := &http.Server{Addr: addr, Handler: apiMux(a.metrics, manager)}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server stopped", "error", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			logger.Info("serving metrics", "addr", addr)
		}

		started := make(chan error, 1)
		go func() { started <- manager.Start() }()

		select {
		case err := <-started:
			if err != nil {
				manager.Shutdown()
				return err
			}
		case <-ctx.Done():
			manager.Shutdown()
			return nil
		}

		<-ctx.Done()
		logger.Info("shutting down...")
		manager.Shutdown()
		return nil
	},
}

func apiMux(metrics *backupmgr.Metrics, manager *backupmgr.BackupManager) *http.ServeMux {
	h := backupmgr.NewHTTPHandler(manager)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/api/v1/backups", h.ListBackupsHandler)
	mux.HandleFunc("/api/v1/backups/snapshot", h.SnapshotNowHandler)
	return mux
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <save>",
	Short: "Archive one save right now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load()
		if err != nil {
			return err
		}
		archive, err := a.manager.BackupNow(args[0])
		if err != nil {
			return err
		}
		fmt.Println(archive)
		return nil
	},
}

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load()
		if err != nil {
			return err
		}
		layout := a.manager.Config().Settings.TimestampFormat
		snapshots, err := a.manager.ListBackups(listLimit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SAVE\tTAKEN\tSIZE\tPATH")
		for _, s := range snapshots {
			size := fmt.Sprintf("%d", s.Size)
			if s.Leftover {
				size = "raw"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.SaveName, s.Taken.Format(layout), size, s.Path)
		}
		return tw.Flush()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var initRoot string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if initRoot == "" {
			return errors.New("--root is required")
		}
		if err := config.Write(configPath, config.Default(initRoot)); err != nil {
			return err
		}
		fmt.Printf("Configuration initialized at %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "savesnapshots.yaml", "path to the YAML config file")

	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show at most this many snapshots (0 for all)")
	configInitCmd.Flags().StringVar(&initRoot, "root", "", "directory containing the save folders")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(runCmd, snapshotCmd, listCmd, configCmd)
}
