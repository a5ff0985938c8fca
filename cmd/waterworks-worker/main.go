package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"waterworks/internal/amqp"
	"waterworks/internal/backend"
	"waterworks/internal/cli"
	"waterworks/internal/log"
	"waterworks/internal/sheets"
	"waterworks/internal/store/github"
	"waterworks/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting waterworks-worker")

	// The worker exists to push the local document to the GitHub mirror, so
	// the target configuration is mandatory here even though the web app can
	// run without it.
	if cfg.GitHubToken == "" || cfg.GitHubRepo == "" {
		logger.Error("Mirror target requires GITHUB_TOKEN and GITHUB_REPO")
		os.Exit(1)
	}

	source, err := backend.NewFactory(logger.Logger).Create(cfg)
	if err != nil {
		logger.Error("Failed to initialize document store",
			log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	target := github.New(github.Options{
		BaseURL: cfg.GitHubAPIURL,
		Repo:    cfg.GitHubRepo,
		Path:    cfg.GitHubFilePath,
		Token:   cfg.GitHubToken,
	})
	logger.Info("Mirror target configured", "repo", cfg.GitHubRepo, log.FieldPath, cfg.GitHubFilePath)

	var ledger worker.LedgerExporter
	if cfg.SheetsExportEnabled() {
		client, err := sheets.New(context.Background(), sheets.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no spreadsheet configured")
	}

	var consumer worker.SyncConsumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		consumer = amqpClient
		logger.Info("Consuming sync messages", log.FieldQueue, cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - mirroring on the periodic ticker only")
	}

	w := worker.NewMirrorWorker(source.Store, target, ledger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	err = w.Run(ctx, consumer, cfg.MirrorInterval)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker failed", log.FieldError, err)
		os.Exit(1)
	}

	if source.Cleanup != nil {
		if err := source.Cleanup(); err != nil {
			logger.Error("Store cleanup error", log.FieldError, err)
		}
	}
	logger.Info("Worker stopped gracefully")
}
