// Package extract wraps the extraction capability with domain-specific
// schemas, post-processing, and cross-validation against physical constraints.
package extract

import (
	"context"
	"log/slog"

	"github.com/roofscope/roofscope/internal/llm"
)

// DefaultConfidence is assumed when the capability parses cleanly but omits a
// self-reported confidence.
const DefaultConfidence float32 = 0.7

// FallbackConfidence marks results synthesized from unparseable capability
// output: deliberately low but non-zero, signaling "unverified, needs manual
// review" rather than "extraction failed".
const FallbackConfidence float32 = 0.5

// invokeAndParse runs one capability round-trip and parses the response
// against schemaMap. A transport error propagates; malformed output comes back
// as a Fallback outcome, never an error.
func invokeAndParse[T any](
	ctx context.Context,
	invoker llm.Invoker,
	logger *slog.Logger,
	event string,
	systemPrompt string,
	text string,
	limit int,
	schemaMap map[string]any,
) (llm.Outcome[T], error) {
	raw, err := invoker.Invoke(ctx, systemPrompt, llm.BuildUserContent(text, limit, schemaMap))
	if err != nil {
		logger.Error(event+".invoke_failed", "error", err)
		return llm.Outcome[T]{}, err
	}

	outcome := llm.ParseInto[T](schemaMap, raw)
	if !outcome.Parsed {
		logger.Warn(event+".fallback", "reason", outcome.Reason)
	}
	return outcome, nil
}
