// ============================================================================
// Scanrunner Daemon - Main Entry Point
// ============================================================================
//
// File: cmd/scanrunnerd/main.go
// Purpose: Application entry point and CLI initialization
//
// A thin entry point: recover top-level panics, build the Cobra command
// tree, inject build-time version metadata, and report command errors on
// stderr with a non-zero exit code.
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/scanrunner/internal/cli"
)

// Build-time version injection via ldflags, e.g.
// go build -ldflags "-X main.version=1.2.0 -X main.commit=abc123"
var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := cli.BuildCLI()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
