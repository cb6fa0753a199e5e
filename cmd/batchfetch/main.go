package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgivc/batchfetch/internal/app"
	"github.com/jgivc/batchfetch/internal/config"
)

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	flag.Parse()

	if err := run(*cfgFileName); err != nil {
		fmt.Fprintf(os.Stderr, "Download failed: %s\n", err)
		os.Exit(1)
	}
}

func run(cfgFileName string) error {
	cfg, err := config.Load(cfgFileName)
	if err != nil {
		return err
	}

	log, err := app.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := app.New(cfg, log).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("All folders processed: %d downloaded, %d skipped, %d failed.\n", summary.Downloaded, summary.Skipped, summary.Failed)

	return nil
}
