package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/notes-service/internal/app"
	"github.com/iliyamo/notes-service/internal/config"
	"github.com/iliyamo/notes-service/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Env, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", logging.Err(err))
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		log.Error("server stopped", logging.Err(err))
		os.Exit(1)
	}
}
