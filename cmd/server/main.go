package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/app/server"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, config.Load())
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Serve(ctx); err != nil {
		app.Log.Error().Err(err).Msg("server stopped with error")
		app.Close()
		os.Exit(1)
	}
	app.Log.Info().Msg("server stopped")
}
