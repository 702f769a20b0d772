// Package main runs benchmark sweeps over the algorithm catalog.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	benchcmd "algobench/internal/cmd/bench"
	"algobench/internal/platform/config"
)

func main() {
	cfg, err := benchcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := benchcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
