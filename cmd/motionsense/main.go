package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yourorg/motionsense/internal/config"
	"github.com/yourorg/motionsense/internal/inference"
	"github.com/yourorg/motionsense/internal/server"
	"github.com/yourorg/motionsense/internal/upload"
)

const defaultConfigContent = `inference:
  base_url: "http://localhost:8030"
  timeout: "60s"
  cache_size: 0

upload:
  allowed_extensions:
    - .txt
    - .csv
  max_size_mb: 50
  progress_interval: "300ms"
  progress_step: 10
  progress_cap: 90

analysis:
  recommendations: []

server:
  host: "127.0.0.1"
  port: 3000
  metrics_path: "/metrics"
  cors_origin: ""

log:
  level: "info"
  format: "json"
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles what every command needs once config is loaded.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	var debug bool

	root := &cobra.Command{
		Use:           "motionsense",
		Short:         "Motion session analysis CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	load := func() (*app, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		if debug {
			cfg.Log.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &app{cfg: cfg, logger: newLogger(cfg.Log)}, nil
	}

	root.AddCommand(newInitCmd())
	root.AddCommand(newValidateCmd(load))
	root.AddCommand(newAnalyzeCmd(load))
	root.AddCommand(newActivitiesCmd(load))
	root.AddCommand(newServeCmd(load))

	return root
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize ~/.motionsense directory and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			baseDir := filepath.Join(home, ".motionsense")
			if err := os.MkdirAll(baseDir, 0o755); err != nil {
				return err
			}

			cfgFile := filepath.Join(baseDir, "config.yaml")
			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(cfgFile, []byte(defaultConfigContent), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", cfgFile)
			} else {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "set inference.base_url or MOTIONSENSE_API_URL to your analysis service")
			return nil
		},
	}
}

func newValidateCmd(load func() (*app, error)) *cobra.Command {
	var filePath string
	cmd := &cobra.Command{Use: "validate", Short: "Check a sensor file against the upload constraints", RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load()
		if err != nil {
			return err
		}
		info, err := os.Stat(filePath)
		if err != nil {
			return err
		}
		file := upload.FileInfo{Name: filepath.Base(filePath), Size: info.Size()}
		if err := upload.Validate(file, a.cfg.Upload.AllowedExtensions, a.cfg.MaxSizeBytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s ok (%.2f MB)\n", file.Name, float64(file.Size)/1024/1024)
		return nil
	}}
	cmd.Flags().StringVar(&filePath, "file", "", "sensor data file (.txt/.csv)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newAnalyzeCmd(load func() (*app, error)) *cobra.Command {
	var filePath, format string
	var quiet, windows bool
	cmd := &cobra.Command{Use: "analyze", Short: "Analyze a sensor file", RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load()
		if err != nil {
			return err
		}
		switch format {
		case "text", "json", "yaml":
		default:
			return fmt.Errorf("unknown format %q", format)
		}
		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		orch, err := a.newOrchestrator()
		if err != nil {
			return err
		}
		if !quiet && format == "text" {
			orch.Observe(progressPrinter(cmd.ErrOrStderr()))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		result, err := orch.Analyze(ctx, upload.Upload{Name: filepath.Base(filePath), Data: data})
		if err != nil {
			return err
		}
		if err := printSummary(cmd.OutOrStdout(), result, format); err != nil {
			return err
		}
		if windows && format == "text" {
			printWindows(cmd.OutOrStdout(), result)
		}
		return nil
	}}
	cmd.Flags().StringVar(&filePath, "file", "", "sensor data file (.txt/.csv)")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not print progress")
	cmd.Flags().BoolVar(&windows, "windows", false, "list every scored window (text format)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newActivitiesCmd(load func() (*app, error)) *cobra.Command {
	return &cobra.Command{Use: "activities", Short: "List activities known to the analysis service", RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load()
		if err != nil {
			return err
		}
		timeout, _ := a.cfg.InferenceTimeout()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		list, err := inference.NewClient(a.cfg.Inference.BaseURL, a.logger).Activities(ctx)
		if err != nil {
			return err
		}
		printActivities(cmd.OutOrStdout(), list)
		return nil
	}}
}

func newServeCmd(load func() (*app, error)) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{Use: "serve", Short: "Start HTTP service", RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			a.cfg.Server.Host = host
		}
		if cmd.Flags().Changed("port") {
			a.cfg.Server.Port = port
		}
		orch, err := a.newOrchestrator()
		if err != nil {
			return err
		}
		client := inference.NewClient(a.cfg.Inference.BaseURL, a.logger)
		srv, err := server.New(a.cfg, orch, client, a.logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx); err != nil {
			a.logger.Warn().Err(err).Str("base_url", a.cfg.Inference.BaseURL).Msg("analysis service not reachable yet")
		}
		cancel()
		return srv.ListenAndServe(ctx, a.cfg.Addr())
	}}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVar(&port, "port", 3000, "server port")
	return cmd
}

// newOrchestrator wires the inference client, optional prediction cache and
// upload settings from config.
func (a *app) newOrchestrator() (*upload.Orchestrator, error) {
	timeout, err := a.cfg.InferenceTimeout()
	if err != nil {
		return nil, err
	}
	interval, err := a.cfg.ProgressInterval()
	if err != nil {
		return nil, err
	}

	var predictor inference.Predictor = inference.NewClient(a.cfg.Inference.BaseURL, a.logger)
	if a.cfg.Inference.CacheSize > 0 {
		cached, err := inference.NewCachingClient(predictor, a.cfg.Inference.CacheSize, a.logger)
		if err != nil {
			return nil, fmt.Errorf("prediction cache: %w", err)
		}
		predictor = cached
	}

	return upload.New(predictor, upload.Options{
		AllowedExtensions: a.cfg.Upload.AllowedExtensions,
		MaxSizeBytes:      a.cfg.MaxSizeBytes(),
		Timeout:           timeout,
		ProgressInterval:  interval,
		ProgressStep:      a.cfg.Upload.ProgressStep,
		ProgressCap:       a.cfg.Upload.ProgressCap,
		Recommendations:   a.cfg.Analysis.Recommendations,
		Logger:            a.logger,
	}), nil
}
