// Package main runs catalog maintenance operations.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	maintenancecmd "algobench/internal/cmd/maintenance"
	"algobench/internal/platform/config"
)

func main() {
	cfg, err := maintenancecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := maintenancecmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
