package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/roofscope/roofscope/internal/common"
	"github.com/roofscope/roofscope/internal/export"
	"github.com/roofscope/roofscope/internal/extract"
	"github.com/roofscope/roofscope/internal/llm"
	"github.com/roofscope/roofscope/internal/llm/anthropic"
	"github.com/roofscope/roofscope/internal/llm/openai"
	"github.com/roofscope/roofscope/internal/ocr"
	"github.com/roofscope/roofscope/internal/pipeline"
	"github.com/roofscope/roofscope/internal/pricing"
	"github.com/roofscope/roofscope/internal/repository"
	"github.com/roofscope/roofscope/internal/server"
	"github.com/roofscope/roofscope/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("db.open_failed", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := repository.Migrate(ctx, db); err != nil {
		logger.Error("db.migrate_failed", "error", err)
		os.Exit(1)
	}

	store, err := newObjectStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage.init_failed", "error", err)
		os.Exit(1)
	}

	invoker := newInvoker(cfg, logger)
	recognizer := ocr.NewVisionRecognizer(ocr.VisionConfig{
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, logger)
	ocrExtractor := ocr.NewExtractor(ocr.Config{
		TempDir:       cfg.OCR.TempDir,
		MinTextLayer:  cfg.OCR.MinTextLayer,
		MinConfidence: cfg.OCR.MinConfidence,
	}, recognizer, logger)

	documents := repository.NewDocumentRepository(db, logger)
	jobs := repository.NewJobRepository(db, logger)
	analyses := repository.NewAnalysisRepository(db, logger)
	catalog := repository.NewCatalogRepository(db, logger)
	estimates := repository.NewEstimateRepository(db, logger)

	processor := pipeline.NewProcessor(documents, jobs, analyses, store, ocrExtractor, pipeline.Extractors{
		Classifier: extract.NewClassifier(invoker, logger),
		Header:     extract.NewHeaderExtractor(invoker, logger),
		PipeJacks:  extract.NewPipeJackExtractor(invoker, logger),
		Vents:      extract.NewVentExtractor(invoker, logger),
		Materials:  extract.NewMaterialsExtractor(invoker, logger),
		Aerial:     extract.NewAerialExtractor(invoker, logger),
	}, cfg.Pricing.WasteFactor, logger)

	calculator := pricing.NewCalculator(catalog, pricing.Config{
		LaborMarkup:    cfg.Pricing.LaborMarkup,
		MaterialMarkup: cfg.Pricing.MaterialMarkup,
		Overhead:       cfg.Pricing.Overhead,
	}, logger)
	exporter := export.NewService(estimates, logger)

	srv := server.New(cfg.Server.Addr, server.Handlers{
		Documents: server.NewDocumentHandler(processor, documents, logger),
		Estimates: server.NewEstimateHandler(calculator, estimates, exporter, logger),
		Catalog:   server.NewCatalogHandler(catalog, logger),
		DB:        db,
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server.failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown_failed", "error", err)
	}
}

func newObjectStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (storage.ObjectStore, error) {
	if cfg.Storage.Bucket != "" {
		return storage.NewGCSStore(ctx, cfg.Storage.Bucket, logger)
	}
	return storage.NewFSStore(cfg.Storage.LocalDir)
}

func newInvoker(cfg *common.Config, logger *slog.Logger) llm.Invoker {
	switch cfg.LLM.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	default:
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	}
}
