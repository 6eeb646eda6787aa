// ============================================================================
// Scanrunner CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra-based command line interface wrapping the demonstration
//          scan host
//
// Command Structure:
//   scanrunnerd                   # Root command
//   ├── run                       # Run a demonstration scan to completion
//   │   └── --config, -c         # Specify config file
//   ├── status                    # Run a short scan and print final status
//   └── --version / --help
//
// ============================================================================

package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/scanrunner/internal/devscan"
	"github.com/ChuLiYu/scanrunner/internal/logging"
)

var configFile string

// BuildCLI constructs the root scanrunnerd command tree.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scanrunnerd",
		Short: "scanrunnerd: a bounded-concurrency event-driven module runtime",
		Long: `scanrunnerd drives a set of recon-style modules over a shared worker
pool, with per-module backpressure, batch collection, and a two-phase
scope acceptance filter.`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")
	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildStatusCommand())
	return rootCmd
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a demonstration scan against the configured targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(configFile, true)
		},
	}
	return cmd
}

func buildStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run a short demonstration scan and print a final status report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(configFile, false)
		},
	}
	return cmd
}

// runScan loads cfg, wires a demonstration scan, and runs it to
// completion. When serveMetrics is true it also starts a /metrics HTTP
// endpoint and waits on SIGINT/SIGTERM before returning; status runs the
// same scan without the HTTP server and returns as soon as it finishes.
func runScan(configPath string, serveMetrics bool) error {
	cfg, err := devscan.LoadScanConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	base := slog.New(slog.NewTextHandler(os.Stderr, nil))
	log := logging.New(base, "demo-scan", "host")

	var reg *prometheus.Registry
	var metricsAddr string
	if serveMetrics {
		reg = prometheus.NewRegistry()
		metricsAddr = ":9090"
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Info("starting metrics server", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err.Error())
			}
		}()
	}

	result, err := RunDemoScan(cfg, log, reg)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("=== scan complete ===")
	fmt.Printf("events consumed: %d\n", result.Stats.Consumed)
	fmt.Printf("events produced: %d\n", result.Stats.Produced)
	fmt.Printf("events failed:   %d\n", result.Stats.Failed)
	fmt.Println()
	fmt.Println("report:")
	for _, line := range result.ReportLines {
		fmt.Println("  " + line)
	}

	if serveMetrics {
		fmt.Printf("\nmetrics available on http://localhost%s/metrics, press Ctrl+C to exit\n", metricsAddr)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
	}
	return nil
}
