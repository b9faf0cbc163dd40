package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"charmstudio/internal/charm"
	"charmstudio/internal/config"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	deadline bool
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = cfg
	_, f.deadline = ctx.Deadline()
	return f.resp, f.err
}

func textResponse(parts []*genai.Part, chunks ...*genai.GroundingChunk) *genai.GenerateContentResponse {
	cand := &genai.Candidate{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}}
	if len(chunks) > 0 {
		cand.GroundingMetadata = &genai.GroundingMetadata{GroundingChunks: chunks}
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{cand}}
}

func defaultLLM() config.LLMConfig {
	return config.DefaultConfig().LLM
}

func TestGemini_GenerateCollectsTextAndSources(t *testing.T) {
	fake := &fakeModels{resp: textResponse(
		[]*genai.Part{
			{Text: "thinking out loud", Thought: true},
			{Text: "# Charm\n"},
			{Text: "body"},
		},
		&genai.GroundingChunk{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
		&genai.GroundingChunk{},
		&genai.GroundingChunk{Web: &genai.GroundingChunkWeb{URI: "https://b.example"}},
	)}
	g := newGeminiGenerator(fake, defaultLLM())

	var labels []string
	res, err := g.Generate(context.Background(), "Use Case: swap.", func(l string) { labels = append(labels, l) })
	require.NoError(t, err)

	assert.Equal(t, "# Charm\nbody", res.Content)
	want := []charm.Source{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://b.example", Title: "Source"},
	}
	if diff := cmp.Diff(want, res.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Invoking Pro Reasoning Engine..."}, labels)
}

func TestGemini_RequestShape(t *testing.T) {
	fake := &fakeModels{resp: textResponse([]*genai.Part{{Text: "ok"}})}
	g := newGeminiGenerator(fake, defaultLLM())

	_, err := g.Generate(context.Background(), "hello", nil)
	require.NoError(t, err)

	assert.Equal(t, "gemini-3-pro-preview", fake.model)
	require.Len(t, fake.contents, 1)
	assert.Equal(t, "hello", fake.contents[0].Parts[0].Text)
	require.NotNil(t, fake.config.ThinkingConfig)
	assert.Equal(t, int32(4000), *fake.config.ThinkingConfig.ThinkingBudget)
	require.Len(t, fake.config.Tools, 1)
	assert.NotNil(t, fake.config.Tools[0].GoogleSearch)
	assert.True(t, fake.deadline, "request runs under the configured timeout")
}

func TestGemini_SearchAndThinkingOptional(t *testing.T) {
	cfg := defaultLLM()
	cfg.GoogleSearch = false
	cfg.ThinkingBudget = 0
	cfg.Model = "gemini-2.5-flash"
	fake := &fakeModels{resp: textResponse([]*genai.Part{{Text: "ok"}})}
	g := newGeminiGenerator(fake, cfg)

	_, err := g.Generate(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Nil(t, fake.config.ThinkingConfig)
	assert.Empty(t, fake.config.Tools)
	assert.Equal(t, "gemini-2.5-flash", fake.model)
	assert.Equal(t, "gemini:gemini-2.5-flash", g.Name())
}

func TestGemini_Errors(t *testing.T) {
	boom := errors.New("quota exceeded")
	g := newGeminiGenerator(&fakeModels{err: boom}, defaultLLM())
	_, err := g.Generate(context.Background(), "x", nil)
	assert.ErrorIs(t, err, boom)

}

func TestGemini_BlankTextIsNotAFailure(t *testing.T) {
	g := newGeminiGenerator(&fakeModels{resp: textResponse([]*genai.Part{{Text: "  \n"}})}, defaultLLM())
	res, err := g.Generate(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "  \n", res.Content)

	g = newGeminiGenerator(&fakeModels{resp: &genai.GenerateContentResponse{}}, defaultLLM())
	res, err = g.Generate(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Content)
	assert.Empty(t, res.Sources)
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), config.LLMConfig{})
	assert.Error(t, err)
}

func TestNew_ResolvesProvider(t *testing.T) {
	cfg := defaultLLM()
	cfg.APIKey = ""
	g, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "offline", g.Name())

	cfg.Provider = "bogus"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)

	cfg.Provider = config.ProviderGemini
	_, err = New(context.Background(), cfg)
	assert.Error(t, err, "gemini without a key")
}

func TestGemini_TimeoutFromConfig(t *testing.T) {
	cfg := defaultLLM()
	cfg.Timeout = "5s"
	g := newGeminiGenerator(&fakeModels{}, cfg)
	assert.Equal(t, 5*time.Second, g.timeout)
}
