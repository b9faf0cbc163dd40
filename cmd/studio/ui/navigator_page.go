package ui

import (
	"strings"

	"charmstudio/internal/navigator"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// NavigatorPageModel shows the protocol reference pages, one at a time.
type NavigatorPageModel struct {
	viewport viewport.Model
	topics   []navigator.Topic
	active   int
	styles   Styles
	md       *MarkdownRenderer
	width    int
	height   int
}

// NewNavigatorPageModel creates the navigator page.
func NewNavigatorPageModel(styles Styles, md *MarkdownRenderer) NavigatorPageModel {
	m := NavigatorPageModel{
		viewport: viewport.New(80, 20),
		topics:   navigator.Topics(),
		styles:   styles,
		md:       md,
	}
	m.UpdateContent()
	return m
}

// SetSize updates the size of the viewport.
func (m *NavigatorPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - 4 // Reserve space for tabs and help
	m.UpdateContent()
}

// Active returns the topic on screen.
func (m NavigatorPageModel) Active() navigator.Topic {
	if len(m.topics) == 0 {
		return navigator.Topic{}
	}
	return m.topics[m.active]
}

// UpdateContent renders the active topic into the viewport.
func (m *NavigatorPageModel) UpdateContent() {
	if len(m.topics) == 0 {
		m.viewport.SetContent("No reference pages available.")
		return
	}
	width := m.viewport.Width - 2
	m.viewport.SetContent(m.md.Render(m.topics[m.active].Markdown, width))
	m.viewport.GotoTop()
}

// Update handles tab switching and scrolling.
func (m NavigatorPageModel) Update(msg tea.Msg) (NavigatorPageModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && len(m.topics) > 0 {
		switch key.Type {
		case tea.KeyTab, tea.KeyRight:
			m.active = (m.active + 1) % len(m.topics)
			m.UpdateContent()
			return m, nil
		case tea.KeyShiftTab, tea.KeyLeft:
			m.active = (m.active - 1 + len(m.topics)) % len(m.topics)
			m.UpdateContent()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the page.
func (m NavigatorPageModel) View() string {
	var tabs []string
	for i, t := range m.topics {
		if i == m.active {
			tabs = append(tabs, m.styles.TypeActive.Render(t.Title))
		} else {
			tabs = append(tabs, m.styles.TypeInactive.Render(t.Title))
		}
	}
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("Protocol Navigator"))
	sb.WriteString("\n")
	sb.WriteString(strings.Join(tabs, " "))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Footer.Render("tab/←→ topic • ↑↓ scroll • esc close"))
	return sb.String()
}
