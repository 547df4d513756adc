package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/roofscope/roofscope/constants"
)

// RecognizeResult is what an external image-to-text capability returns.
type RecognizeResult struct {
	Text       string
	Provider   string
	Confidence float32
}

// Recognizer is the external OCR capability the extractor falls back to for
// scanned PDFs and images.
type Recognizer interface {
	RecognizeText(ctx context.Context, content []byte, mimeType string) (RecognizeResult, error)
}

type Config struct {
	TempDir      string  // scratch dir for pdfcpu; defaults to os.TempDir()
	MinTextLayer int     // min chars for a usable native PDF text layer
	MinConfidence float32 // image OCR below this flags review
}

// ExtractionResult is the OCR stage output.
type ExtractionResult struct {
	Text        string
	Provider    string // "pdf-text" | "pdf-ocr" | "image-ocr" | "direct"
	Pages       int
	Confidence  float32
	NeedsReview bool
	Warnings    []string
	Duration    time.Duration
}

// Extractor turns a binary document into raw text. PDFs with a usable native
// text layer never hit the recognizer.
type Extractor struct {
	cfg        Config
	recognizer Recognizer
	logger     *slog.Logger
}

func NewExtractor(cfg Config, recognizer Recognizer, logger *slog.Logger) *Extractor {
	if cfg.MinTextLayer <= 0 {
		cfg.MinTextLayer = 200
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = constants.ImageConfidenceThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, recognizer: recognizer, logger: logger}
}

// Extract picks a strategy based on MIME type. Textual content passes through
// with confidence 1.0 and provider "direct".
func (e *Extractor) Extract(ctx context.Context, content []byte, mimeType string) (ExtractionResult, error) {
	start := time.Now()
	format := constants.MapMIMEToFormat(mimeType)
	e.logger.Debug("ocr.extract.start", "mime", mimeType, "format", format, "bytes", len(content))

	switch format {
	case constants.PDF:
		res, err := e.extractPDF(ctx, content)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, content, mimeType)
		res.Duration = time.Since(start)
		return res, err
	case constants.TEXT:
		if !utf8.Valid(content) {
			return ExtractionResult{}, fmt.Errorf("text document is not valid UTF-8")
		}
		return ExtractionResult{
			Text:       string(content),
			Provider:   "direct",
			Confidence: 1.0,
			Duration:   time.Since(start),
		}, nil
	default:
		e.logger.Error("ocr.extract.unsupported", "mime", mimeType)
		return ExtractionResult{}, fmt.Errorf("unsupported mime type: %q", mimeType)
	}
}

func (e *Extractor) extractImage(ctx context.Context, content []byte, mimeType string) (ExtractionResult, error) {
	rec, err := e.recognizer.RecognizeText(ctx, content, mimeType)
	if err != nil {
		e.logger.Error("ocr.image.failed", "error", err)
		return ExtractionResult{}, fmt.Errorf("image ocr: %w", err)
	}

	res := ExtractionResult{
		Text:       rec.Text,
		Provider:   "image-ocr",
		Pages:      1,
		Confidence: rec.Confidence,
	}
	if rec.Confidence > 0 && rec.Confidence < e.cfg.MinConfidence {
		e.logger.Warn("ocr.image.low_confidence", "confidence", rec.Confidence)
		res.NeedsReview = true
		res.Warnings = append(res.Warnings, fmt.Sprintf("image OCR confidence %.2f below %.2f", rec.Confidence, e.cfg.MinConfidence))
	}
	return res, nil
}
