// Package generation produces the Markdown body and citations of a new charm
// from a reasoning context.
package generation

import (
	"context"
	"errors"

	"charmstudio/internal/charm"
)

// ErrEmptyPrompt is returned when a backend is given nothing to generate from.
var ErrEmptyPrompt = errors.New("nothing to generate from")

// ProgressFunc receives human-readable progress labels while a request runs.
type ProgressFunc func(label string)

// Result is the generated content of a charm.
type Result struct {
	Content string
	Sources []charm.Source
}

// Generator turns a reasoning context into charm content.
type Generator interface {
	// Generate may call onProgress zero or more times before returning.
	// onProgress may be nil.
	Generate(ctx context.Context, prompt string, onProgress ProgressFunc) (Result, error)

	// Name identifies the backend in logs.
	Name() string
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, onProgress ProgressFunc) (Result, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, onProgress ProgressFunc) (Result, error) {
	return f(ctx, prompt, onProgress)
}

func (f GeneratorFunc) Name() string { return "func" }

func report(onProgress ProgressFunc, label string) {
	if onProgress != nil {
		onProgress(label)
	}
}

// sourceTitle is the title given to citations that arrive without one.
const sourceTitle = "Source"

func newSource(uri, title string) charm.Source {
	if title == "" {
		title = sourceTitle
	}
	return charm.Source{URI: uri, Title: title}
}
