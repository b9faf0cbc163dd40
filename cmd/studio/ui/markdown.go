package ui

import (
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// RenderCache memoizes rendered output by content hash.
type RenderCache struct {
	mu      sync.Mutex
	entries map[uint64]string
	maxSize int
}

// NewRenderCache creates a cache holding at most maxSize entries.
func NewRenderCache(maxSize int) *RenderCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &RenderCache{entries: make(map[uint64]string), maxSize: maxSize}
}

// ComputeKey hashes the inputs into a cache key.
func ComputeKey(inputs ...string) uint64 {
	h := fnv.New64a()
	for _, in := range inputs {
		h.Write([]byte(in))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// GetOrCompute returns the cached value for key, computing it on a miss.
// A full cache is emptied before the new entry goes in.
func (rc *RenderCache) GetOrCompute(key uint64, compute func() string) string {
	rc.mu.Lock()
	if v, ok := rc.entries[key]; ok {
		rc.mu.Unlock()
		return v
	}
	rc.mu.Unlock()

	v := compute()

	rc.mu.Lock()
	if len(rc.entries) >= rc.maxSize {
		rc.entries = make(map[uint64]string)
	}
	rc.entries[key] = v
	rc.mu.Unlock()
	return v
}


// MarkdownRenderer renders charm content with glamour, one renderer per
// wrap width.
type MarkdownRenderer struct {
	style string // empty = auto-detect

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	cache     *RenderCache
}

// NewMarkdownRenderer creates a renderer. style is a glamour standard style
// name ("dark", "light", "notty"); empty auto-detects.
func NewMarkdownRenderer(style string) *MarkdownRenderer {
	return &MarkdownRenderer{
		style:     style,
		renderers: make(map[int]*glamour.TermRenderer),
		cache:     NewRenderCache(64),
	}
}

// Render renders md wrapped to width. It falls back to the raw text when
// glamour fails.
func (r *MarkdownRenderer) Render(md string, width int) string {
	if width < 20 {
		width = 20
	}
	key := ComputeKey(md, strconv.Itoa(width))
	return r.cache.GetOrCompute(key, func() string {
		tr, err := r.renderer(width)
		if err != nil {
			return md
		}
		out, err := tr.Render(md)
		if err != nil {
			return md
		}
		return strings.TrimRight(out, "\n")
	})
}

func (r *MarkdownRenderer) renderer(width int) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tr, ok := r.renderers[width]; ok {
		return tr, nil
	}
	style := glamour.WithAutoStyle()
	if r.style != "" {
		style = glamour.WithStandardStyle(r.style)
	}
	tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	r.renderers[width] = tr
	return tr, nil
}
