package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF probes the native text layer with pdfcpu. Scanned PDFs (no
// usable layer) fall back to the external recognizer.
func (e *Extractor) extractPDF(ctx context.Context, content []byte) (ExtractionResult, error) {
	tempDir := e.cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	workDir, err := os.MkdirTemp(tempDir, "roofscope-pdf-")
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("pdf temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	tempFile := filepath.Join(workDir, "doc.pdf")
	if err := os.WriteFile(tempFile, content, 0o644); err != nil {
		return ExtractionResult{}, fmt.Errorf("write temp pdf: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("read pdf: %w", err)
	}
	pageCount := pdfCtx.PageCount

	text, warn := e.nativeTextLayer(tempFile, workDir)
	if len(strings.TrimSpace(text)) >= e.cfg.MinTextLayer {
		e.logger.Debug("ocr.pdf.text_layer", "pages", pageCount, "chars", len(text))
		return ExtractionResult{
			Text:       text,
			Provider:   "pdf-text",
			Pages:      pageCount,
			Confidence: 0.95,
			Warnings:   warn,
		}, nil
	}

	// Scanned or image-only PDF.
	e.logger.Debug("ocr.pdf.fallback", "pages", pageCount, "native_chars", len(text))
	rec, err := e.recognizer.RecognizeText(ctx, content, "application/pdf")
	if err != nil {
		e.logger.Error("ocr.pdf.failed", "error", err)
		return ExtractionResult{}, fmt.Errorf("pdf ocr: %w", err)
	}
	return ExtractionResult{
		Text:       rec.Text,
		Provider:   "pdf-ocr",
		Pages:      pageCount,
		Confidence: rec.Confidence,
		Warnings:   warn,
	}, nil
}

// nativeTextLayer extracts page content streams and pulls the string operands
// out of text-show operators. Good enough to decide whether a real text layer
// exists and to feed digital PDFs to the extractors without an OCR round-trip.
func (e *Extractor) nativeTextLayer(pdfPath, workDir string) (string, []string) {
	outDir := filepath.Join(workDir, "content")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", []string{fmt.Sprintf("content dir: %v", err)}
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(pdfPath, outDir, nil, conf); err != nil {
		e.logger.Warn("ocr.pdf.extract_content_failed", "error", err)
		return "", []string{fmt.Sprintf("pdf content extraction: %v", err)}
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", []string{fmt.Sprintf("read content dir: %v", err)}
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			continue
		}
		page := contentStreamText(string(data))
		if page != "" {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(page)
		}
	}
	return b.String(), nil
}

// contentStreamText scans a PDF content stream for (...) string operands of
// Tj/TJ operators. Escapes are unwound; positioning numbers are skipped.
func contentStreamText(stream string) string {
	var b strings.Builder
	inString := false
	escaped := false
	depth := 0

	for i := 0; i < len(stream); i++ {
		c := stream[i]
		if !inString {
			if c == '(' {
				inString = true
				depth = 1
			}
			continue
		}
		if escaped {
			switch c {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '(', ')', '\\':
				b.WriteByte(c)
			}
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				inString = false
				b.WriteByte(' ')
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}
