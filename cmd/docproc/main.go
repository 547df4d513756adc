// docproc runs the extraction pipeline against one document and prints the
// structured result. Operator/debug tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/internal/common"
	"github.com/roofscope/roofscope/internal/extract"
	"github.com/roofscope/roofscope/internal/ingest"
	"github.com/roofscope/roofscope/internal/llm"
	"github.com/roofscope/roofscope/internal/llm/anthropic"
	"github.com/roofscope/roofscope/internal/llm/openai"
	"github.com/roofscope/roofscope/internal/ocr"
	"github.com/roofscope/roofscope/internal/pipeline"
	"github.com/roofscope/roofscope/internal/repository"
	"github.com/roofscope/roofscope/internal/storage"
)

func main() {
	var (
		orgFlag   = flag.String("org", "", "organization id (UUID)")
		docFlag   = flag.String("doc", "", "document id (UUID)")
		jobFlag   = flag.String("job", "", "job id (UUID), required with -file")
		fileFlag  = flag.String("file", "", "local file to ingest and process instead of -doc")
		reprocess = flag.Bool("reprocess", false, "reset the document before running")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	orgID, err := uuid.Parse(*orgFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "-org must be a UUID")
		os.Exit(2)
	}
	var docID uuid.UUID
	if *fileFlag == "" {
		docID, err = uuid.Parse(*docFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "-doc must be a UUID (or pass -file)")
			os.Exit(2)
		}
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

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

	var store storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		store, err = storage.NewGCSStore(ctx, cfg.Storage.Bucket, logger)
	} else {
		store, err = storage.NewFSStore(cfg.Storage.LocalDir)
	}
	if err != nil {
		logger.Error("storage.init_failed", "error", err)
		os.Exit(1)
	}

	var invoker llm.Invoker
	if cfg.LLM.Provider == "openai" {
		invoker = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	} else {
		invoker = anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	}

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

	if *fileFlag != "" {
		jobID, err := uuid.Parse(*jobFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "-job must be a UUID when using -file")
			os.Exit(2)
		}
		ing := ingest.NewIngestor(documents, jobs, store, logger)
		res, err := ing.IngestFile(ctx, orgID, jobID, *fileFlag)
		if err != nil {
			logger.Error("ingest.failed", "error", err)
			os.Exit(1)
		}
		docID = res.DocumentID
	}

	processor := pipeline.NewProcessor(
		documents,
		jobs,
		repository.NewAnalysisRepository(db, logger),
		store,
		ocrExtractor,
		pipeline.Extractors{
			Classifier: extract.NewClassifier(invoker, logger),
			Header:     extract.NewHeaderExtractor(invoker, logger),
			PipeJacks:  extract.NewPipeJackExtractor(invoker, logger),
			Vents:      extract.NewVentExtractor(invoker, logger),
			Materials:  extract.NewMaterialsExtractor(invoker, logger),
			Aerial:     extract.NewAerialExtractor(invoker, logger),
		},
		cfg.Pricing.WasteFactor,
		logger,
	)

	var result pipeline.ProcessResult
	if *reprocess {
		result = processor.Reprocess(ctx, orgID, docID)
	} else {
		result = processor.ProcessDocument(ctx, orgID, docID)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	if !result.Success {
		os.Exit(1)
	}
}
