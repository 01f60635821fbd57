package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	musicorg "github.com/solidcopy/musicorg/internal"
	"github.com/solidcopy/musicorg/internal/conf"
	"github.com/solidcopy/musicorg/internal/logging"
	"github.com/solidcopy/musicorg/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	var cfg conf.Config
	cfg.Parse()

	if cfg.PrintVersion {
		fmt.Printf("%s %s\n", musicorg.Name, musicorg.Version)
		return 0
	}

	logger, errorHandler := logging.New(os.Stderr, &cfg.LogLevel)
	logger = logger.With("run", uuid.NewString())

	if cfg.Missing() {
		if !isTerminal(os.Stdin) {
			logger.Error("invalid arguments", "err", conf.ErrMissingArgs)
			flag.Usage()
			return 2
		}
		if err := cfg.Prompt(os.Stdin, os.Stdout); err != nil {
			logger.Error("prompt", "err", err)
			return 1
		}
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid arguments", "err", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Debug("organizing", "source", cfg.Source, "library", cfg.Library, "dry_run", cfg.Options.DryRun)

	organizer := service.NewOrganizer(cfg.Library, cfg.Options, logger)
	stats, err := organizer.Organize(ctx, cfg.Source)
	if err != nil {
		logger.Error("organize", "source", cfg.Source, "err", err)
	}

	if err := service.Report(os.Stdout, stats, cfg.Verbosity); err != nil {
		logger.Error("write report", "err", err)
	}

	return errorHandler.ExitCode()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
