// Package main exports recorded metrics for external reporting tools.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	exportcmd "algobench/internal/cmd/export"
	"algobench/internal/platform/config"
)

func main() {
	cfg, err := exportcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := exportcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
