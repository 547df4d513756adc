package llm

import "context"

// Invoker is the extraction-capability boundary the pipeline depends on.
// Implementations call a hosted model and return its raw text response;
// callers own all parsing and fallback behavior.
type Invoker interface {
	Invoke(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// InvokerFunc adapts a function to the Invoker interface, mainly for tests.
type InvokerFunc func(ctx context.Context, systemPrompt, userContent string) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, systemPrompt, userContent string) (string, error) {
	return f(ctx, systemPrompt, userContent)
}
