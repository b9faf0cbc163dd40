package generation

import (
	"context"
	"fmt"
	"time"

	"charmstudio/internal/charm"
	"charmstudio/internal/config"
	"charmstudio/internal/logging"

	"google.golang.org/genai"
)

// =============================================================================
// GOOGLE GEMINI GENERATOR
// =============================================================================

const (
	defaultGeminiModel = "gemini-3-pro-preview"

	// invokingLabel is reported once before the request goes out.
	invokingLabel = "Invoking Pro Reasoning Engine..."
)

// contentModels is the slice of genai.Models the generator uses.
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator generates charm content with Gemini, grounded with
// Google Search when enabled.
type GeminiGenerator struct {
	models         contentModels
	model          string
	thinkingBudget int32
	googleSearch   bool
	timeout        time.Duration
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGeminiGenerator(client.Models, cfg), nil
}

func newGeminiGenerator(models contentModels, cfg config.LLMConfig) *GeminiGenerator {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiGenerator{
		models:         models,
		model:          model,
		thinkingBudget: int32(cfg.ThinkingBudget),
		googleSearch:   cfg.GoogleSearch,
		timeout:        cfg.GetTimeout(),
	}
}

// Generate sends prompt to the model and collects the text and web citations
// of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, onProgress ProgressFunc) (Result, error) {
	report(onProgress, invokingLabel)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	timer := logging.StartTimer(logging.CategoryAPI, "gemini generate")
	logging.APIDebug("gemini request model=%s prompt_len=%d search=%v", g.model, len(prompt), g.googleSearch)

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.requestConfig())
	timer.StopWithThreshold(30 * time.Second)
	if err != nil {
		logging.APIError("gemini request failed: %v", err)
		return Result{}, fmt.Errorf("gemini generate failed: %w", err)
	}

	// A blank answer is still an answer; only a failed call is a failure.
	var content string
	if resp != nil {
		content = resp.Text()
	}

	sources := groundingSources(resp)
	logging.API("gemini response: %d chars, %d sources", len(content), len(sources))
	return Result{Content: content, Sources: sources}, nil
}

func (g *GeminiGenerator) requestConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if g.thinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(g.thinkingBudget)}
	}
	if g.googleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

// groundingSources keeps the web chunks of the first candidate, in order.
func groundingSources(resp *genai.GenerateContentResponse) []charm.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var sources []charm.Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		sources = append(sources, newSource(chunk.Web.URI, chunk.Web.Title))
	}
	return sources
}

// Name returns the backend name.
func (g *GeminiGenerator) Name() string {
	return fmt.Sprintf("gemini:%s", g.model)
}
