package main

import (
	"os/signal"
	"syscall"

	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/mantonx/mediacatalog/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	flush, err := initSentry(cfg.Reporting)
	if err != nil {
		return err
	}
	defer flush()

	db, err := openDatabase()
	if err != nil {
		return err
	}

	registry := modulemanager.Registry
	if err := server.InitializeModules(db, registry); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := server.SetupRouter(cfg, db, registry)
	if err := server.Run(ctx, cfg, router, registry); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
