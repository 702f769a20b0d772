// Package main initializes and seeds the lineage database.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	initdbcmd "algobench/internal/cmd/initdb"
	"algobench/internal/platform/config"
)

func main() {
	cfg, err := initdbcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initdbcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
