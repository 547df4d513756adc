package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const visionSystemPrompt = "You are an OCR engine. Transcribe ALL text from the provided document " +
	"exactly as it appears, preserving line breaks and table structure as plain text. " +
	"Do not summarize, translate, or annotate. " +
	"After the transcript, on a final line by itself, output: CONFIDENCE: <0.00-1.00> " +
	"reflecting how legible the source was."

// VisionRecognizer implements Recognizer on the Anthropic Messages API with
// image/document blocks.
type VisionRecognizer struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *slog.Logger
}

type VisionConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

func NewVisionRecognizer(cfg VisionConfig, logger *slog.Logger) *VisionRecognizer {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionRecognizer{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
}

func (r *VisionRecognizer) RecognizeText(ctx context.Context, content []byte, mimeType string) (RecognizeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	encoded := base64.StdEncoding.EncodeToString(content)

	var block anthropic.ContentBlockParamUnion
	if mimeType == "application/pdf" {
		block = anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: encoded})
	} else {
		block = anthropic.NewImageBlockBase64(mimeType, encoded)
	}

	start := time.Now()
	resp, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: int64(r.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: visionSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(block, anthropic.NewTextBlock("Transcribe this document.")),
		},
	})
	if err != nil {
		return RecognizeResult{}, fmt.Errorf("vision ocr: %w", err)
	}

	var out strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			out.WriteString(b.Text)
		}
	}

	text, confidence := splitConfidenceLine(out.String())
	r.logger.Debug("ocr.vision.ok",
		"mime", mimeType,
		"chars", len(text),
		"confidence", confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return RecognizeResult{Text: text, Provider: "anthropic-vision", Confidence: confidence}, nil
}

// splitConfidenceLine strips the trailing "CONFIDENCE: x" line from a
// transcript. Missing or malformed markers default to 0.75.
func splitConfidenceLine(s string) (string, float32) {
	const marker = "CONFIDENCE:"
	confidence := float32(0.75)

	idx := strings.LastIndex(s, marker)
	if idx < 0 {
		return strings.TrimSpace(s), confidence
	}
	fields := strings.Fields(s[idx+len(marker):])
	if len(fields) > 0 {
		if f, err := strconv.ParseFloat(fields[0], 32); err == nil && f >= 0 && f <= 1 {
			confidence = float32(f)
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s), confidence
}
