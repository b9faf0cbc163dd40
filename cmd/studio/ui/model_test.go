package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	"charmstudio/internal/charm"
	"charmstudio/internal/events"
	"charmstudio/internal/generation"
	"charmstudio/internal/studio"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestStudio(t *testing.T, pub events.Publisher) *studio.Service {
	t.Helper()
	gen := generation.GeneratorFunc(func(ctx context.Context, prompt string, onProgress generation.ProgressFunc) (generation.Result, error) {
		onProgress("Invoking Pro Reasoning Engine...")
		return generation.Result{Content: "## Spell\n\nA generated charm.", Sources: []charm.Source{{URI: "https://a.example", Title: "A"}}}, nil
	})
	s, err := studio.New(studio.Options{
		Generator: gen,
		Publisher: pub,
		Wait:      func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	})
	if err != nil {
		t.Fatalf("studio.New: %v", err)
	}
	return s
}

func newTestModel(t *testing.T) (Model, *studio.Service) {
	t.Helper()
	s := newTestStudio(t, nil)
	m := New(Options{Studio: s, MarkdownStyle: "notty"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), s
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func forgeOne(t *testing.T, m Model, prompt string) Model {
	t.Helper()
	m = typeText(t, m, prompt)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected forge command")
	}
	msg := cmd()
	if _, ok := msg.(forgeDoneMsg); !ok {
		t.Fatalf("expected forgeDoneMsg, got %T", msg)
	}
	m, _ = update(t, m, msg)
	return m
}

func TestModel_EmptyState(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	if !strings.Contains(view, "ENCHANT BITCOIN") {
		t.Fatalf("expected empty state, got:\n%s", view)
	}
	if !strings.Contains(view, "No charms yet") {
		t.Fatalf("expected empty list")
	}
}

func TestModel_ForgeAddsCharm(t *testing.T) {
	m, s := newTestModel(t)
	m = forgeOne(t, m, "A dividend token")

	charms := s.Charms()
	if len(charms) != 1 {
		t.Fatalf("expected 1 charm, got %d", len(charms))
	}
	if charms[0].Type != charm.TypeLogic {
		t.Fatalf("expected default LOGIC type, got %s", charms[0].Type)
	}
	if m.input.Value() != "" {
		t.Fatalf("prompt should be cleared after a successful forge")
	}
	view := m.View()
	if !strings.Contains(view, "A dividend token") {
		t.Fatalf("expected charm title in view")
	}
	if !strings.Contains(view, "Artifact enchanted with recursive ZK proof metadata.") {
		t.Fatalf("expected success log line in view")
	}
}

func TestModel_BlankPromptDoesNothing(t *testing.T) {
	m, s := newTestModel(t)
	m = typeText(t, m, "   ")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("blank prompt should not start a forge")
	}
	if len(s.Charms()) != 0 {
		t.Fatalf("no charm expected")
	}
}

func TestModel_TypeSelection(t *testing.T) {
	m, s := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if got := charm.Types[m.typeIdx]; got != charm.TypeStablecoin {
		t.Fatalf("expected STABLECOIN after one cycle, got %s", got)
	}
	if !strings.Contains(m.input.Placeholder, "stablecoin") {
		t.Fatalf("placeholder should follow type, got %q", m.input.Placeholder)
	}
	forgeOne(t, m, "dollar")
	if s.Charms()[0].Type != charm.TypeStablecoin {
		t.Fatalf("forged with wrong type")
	}
}

func TestModel_LifecycleKeys(t *testing.T) {
	m, s := newTestModel(t)
	m = forgeOne(t, m, "lifecycle")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusList {
		t.Fatalf("tab should focus the charm list")
	}

	// Broadcasting a draft is refused with a hint.
	m, cmd := update(t, m, key("b"))
	if cmd != nil {
		t.Fatalf("broadcast of a draft should not start")
	}
	if !strings.Contains(m.flash, "proven") {
		t.Fatalf("expected hint, got %q", m.flash)
	}

	for _, k := range []string{"p", "b", "c"} {
		var cmd tea.Cmd
		m, cmd = update(t, m, key(k))
		if cmd == nil {
			t.Fatalf("key %q should start a run (flash %q)", k, m.flash)
		}
		msg := cmd().(phaseDoneMsg)
		if msg.err != nil {
			t.Fatalf("key %q: %v", k, msg.err)
		}
		m, _ = update(t, m, msg)
	}

	got := s.Charms()[0]
	if got.Status != charm.StatusBeamed || got.CurrentChain != charm.ChainCardano {
		t.Fatalf("expected beamed to Cardano, got %s on %s", got.Status, got.CurrentChain)
	}
	if !strings.Contains(m.View(), "BEAMED") {
		t.Fatalf("expected beamed badge in view")
	}
}

func TestModel_Navigator(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, key("?"))
	if !m.showNav {
		t.Fatalf("? should open the navigator")
	}
	if !strings.Contains(m.View(), "Protocol Navigator") {
		t.Fatalf("expected navigator view")
	}
	first := m.nav.Active().Slug
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.nav.Active().Slug == first {
		t.Fatalf("tab should switch topic inside the navigator")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showNav {
		t.Fatalf("esc should close the navigator")
	}
}

func TestModel_EventsDriveRefresh(t *testing.T) {
	bus := events.NewBus(64)
	defer bus.Close()
	ch := bus.Subscribe()
	s := newTestStudio(t, bus)
	m := New(Options{Studio: s, Events: ch, MarkdownStyle: "notty"})

	if _, err := s.Forge(context.Background(), "external", charm.TypeXBTC); err != nil {
		t.Fatalf("forge: %v", err)
	}
	msg := m.waitForEvent()()
	if _, ok := msg.(eventMsg); !ok {
		t.Fatalf("expected eventMsg, got %T", msg)
	}
	m, cmd := update(t, m, msg)
	if cmd == nil {
		t.Fatalf("model should keep listening for events")
	}
	if len(m.view.Charms) != 1 {
		t.Fatalf("snapshot should include the forged charm")
	}
}

func TestModel_ConfigReloaded(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, ConfigReloadedMsg{Path: ".studio/config.yaml"})
	if !strings.Contains(m.flash, ".studio/config.yaml") {
		t.Fatalf("expected reload notice, got %q", m.flash)
	}
}

func TestCharmMarkdown(t *testing.T) {
	c := charm.Charm{
		Title:        "t",
		Type:         charm.TypeFungible,
		Status:       charm.StatusMinted,
		CurrentChain: charm.ChainBitcoin,
		Content:      "body",
		TxID:         "abc",
		Sources:      []charm.Source{{URI: "https://x.example", Title: "X"}},
	}
	md := charmMarkdown(c)
	for _, want := range []string{"# t", "eUTXO Token", "`abc`", "[X](https://x.example)", "body"} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in:\n%s", want, md)
		}
	}
}
