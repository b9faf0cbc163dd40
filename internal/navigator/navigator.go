// Package navigator holds the protocol reference pages shown by the studio's
// help screen and served by the API.
package navigator

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed topics/*.md
var topicFS embed.FS

// Topic is one reference page.
type Topic struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// Topics returns every page in display order. The abstract comes first.
func Topics() []Topic {
	entries, err := fs.ReadDir(topicFS, "topics")
	if err != nil {
		panic(fmt.Sprintf("navigator: embedded topics unreadable: %v", err))
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	topics := make([]Topic, 0, len(names))
	for _, name := range names {
		data, err := topicFS.ReadFile(path.Join("topics", name))
		if err != nil {
			panic(fmt.Sprintf("navigator: %s: %v", name, err))
		}
		topics = append(topics, parse(name, string(data)))
	}
	return topics
}

// Lookup finds a page by slug.
func Lookup(slug string) (Topic, bool) {
	for _, t := range Topics() {
		if t.Slug == slug {
			return t, true
		}
	}
	return Topic{}, false
}

// parse derives the slug from "NN-slug.md" and the title from the first heading.
func parse(name, markdown string) Topic {
	slug := strings.TrimSuffix(name, ".md")
	if i := strings.IndexByte(slug, '-'); i >= 0 {
		slug = slug[i+1:]
	}
	title := slug
	for _, line := range strings.Split(markdown, "\n") {
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			title = strings.TrimSpace(rest)
			break
		}
	}
	return Topic{Slug: slug, Title: title, Markdown: markdown}
}
