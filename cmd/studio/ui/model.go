package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charmstudio/internal/charm"
	"charmstudio/internal/events"
	"charmstudio/internal/logging"
	"charmstudio/internal/phase"
	"charmstudio/internal/studio"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Studio is the command surface the interface drives.
type Studio interface {
	Snapshot() studio.View
	Forge(ctx context.Context, prompt string, t charm.Type, opts ...studio.ForgeOption) (*charm.Charm, error)
	BeginProve(id string) (*phase.Pending, error)
	BeginBroadcast(id string) (*phase.Pending, error)
	BeginBeam(id string, target charm.Chain) (*phase.Pending, error)
}

type focus int

const (
	focusPrompt focus = iota
	focusList
)

// Messages
type (
	eventMsg       events.Event
	eventsDoneMsg  struct{}
	forgeDoneMsg   struct {
		charm *charm.Charm
		err   error
	}
	phaseDoneMsg struct {
		key   phase.Key
		charm charm.Charm
		err   error
	}
)

// ConfigReloadedMsg tells the interface the config file was re-read.
type ConfigReloadedMsg struct {
	Path string
}

// Options configures the interface model.
type Options struct {
	Studio Studio
	// Events, when set, drives re-renders; otherwise the model refreshes
	// on its own messages only.
	Events <-chan events.Event
	// Context bounds every command the interface starts.
	Context context.Context
	Styles  *Styles
	// MarkdownStyle is a glamour style name; empty auto-detects.
	MarkdownStyle string
}

// Model is the root bubbletea model.
type Model struct {
	studio Studio
	ctx    context.Context
	events <-chan events.Event

	styles Styles
	md     *MarkdownRenderer

	input   textinput.Model
	spinner spinner.Model
	bar     progress.Model
	logs    viewport.Model
	detail  viewport.Model
	nav     NavigatorPageModel

	view     studio.View
	focus    focus
	typeIdx  int
	cursor   int
	showNav  bool
	forging  bool
	flash    string
	flashErr bool

	width  int
	height int
}

// New creates the root model.
func New(opts Options) Model {
	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	md := NewMarkdownRenderer(opts.MarkdownStyle)

	in := textinput.New()
	in.Prompt = "✦ "
	in.PromptStyle = styles.Prompt
	in.CharLimit = 2000
	in.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Spinner))

	m := Model{
		studio:  opts.Studio,
		ctx:     ctx,
		events:  opts.Events,
		styles:  styles,
		md:      md,
		input:   in,
		spinner: sp,
		bar:     progress.New(progress.WithGradient(string(DarkPrimary), "#a855f7")),
		logs:    viewport.New(80, 6),
		detail:  viewport.New(60, 16),
		nav:     NewNavigatorPageModel(styles, md),
	}
	m.updatePlaceholder()
	m.refresh()
	return m
}

// Init starts the spinner and the event subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return eventsDoneMsg{}
		}
		return eventMsg(evt)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case eventMsg:
		m.refresh()
		return m, m.waitForEvent()

	case eventsDoneMsg:
		return m, nil

	case forgeDoneMsg:
		m.forging = false
		switch {
		case msg.err != nil:
			m.setFlash(msg.err.Error(), true)
		case msg.charm != nil:
			m.input.SetValue("")
			m.setFlash(fmt.Sprintf("Forged %q", msg.charm.Title), false)
			m.cursor = len(m.view.Charms)
		}
		m.refresh()
		return m, nil

	case phaseDoneMsg:
		if msg.err != nil {
			m.setFlash(fmt.Sprintf("%s failed: %v", msg.key.Kind, msg.err), true)
		} else {
			m.setFlash(fmt.Sprintf("%s complete: %s is %s", msg.key.Kind, msg.charm.Title, msg.charm.Status), false)
		}
		m.refresh()
		return m, nil

	case ConfigReloadedMsg:
		m.setFlash("Config reloaded from "+msg.Path, false)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.events == nil && m.view.Generation.IsGenerating {
			m.refresh()
		}
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.showNav {
		if msg.Type == tea.KeyEsc || msg.String() == "?" || msg.String() == "q" {
			m.showNav = false
			return m, nil
		}
		var cmd tea.Cmd
		m.nav, cmd = m.nav.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyTab:
		m.toggleFocus()
		return m, nil
	case tea.KeyCtrlT:
		m.cycleType(1)
		return m, nil
	}

	if m.focus == focusPrompt {
		if msg.Type == tea.KeyEnter {
			return m.forge()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showNav = true
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "t":
		m.cycleType(1)
	case "T":
		m.cycleType(-1)
	case "i", "esc":
		m.setFocus(focusPrompt)
	case "p":
		return m.startPhase(m.studio.BeginProve)
	case "b", "e":
		return m.startPhase(m.studio.BeginBroadcast)
	case "c":
		return m.startBeam(charm.ChainCardano)
	case "d":
		return m.startBeam(charm.ChainDogecoin)
	default:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	m.renderDetail()
	return m, nil
}

// forge sends the prompt to the studio. It is inert while a run is in
// progress or the prompt is blank.
func (m Model) forge() (tea.Model, tea.Cmd) {
	prompt := m.input.Value()
	if strings.TrimSpace(prompt) == "" || m.forging || m.view.Generation.IsGenerating {
		return m, nil
	}
	m.forging = true
	m.flash = ""
	t := charm.Types[m.typeIdx]
	s, ctx := m.studio, m.ctx
	logging.UIDebug("forge requested: type=%s len=%d", t, len(prompt))
	return m, func() tea.Msg {
		c, err := s.Forge(ctx, prompt, t)
		return forgeDoneMsg{charm: c, err: err}
	}
}

func (m Model) startBeam(target charm.Chain) (tea.Model, tea.Cmd) {
	return m.startPhase(func(id string) (*phase.Pending, error) {
		return m.studio.BeginBeam(id, target)
	})
}

func (m Model) startPhase(begin func(id string) (*phase.Pending, error)) (tea.Model, tea.Cmd) {
	sel, ok := m.selected()
	if !ok {
		return m, nil
	}
	pending, err := begin(sel.ID)
	if err != nil {
		switch {
		case errors.Is(err, studio.ErrInvalidTransition):
			m.setFlash(actionHint(sel), true)
		default:
			m.setFlash(err.Error(), true)
		}
		return m, nil
	}
	m.flash = ""
	m.refresh()
	ctx := m.ctx
	return m, func() tea.Msg {
		c, err := pending.Wait(ctx)
		return phaseDoneMsg{key: pending.Key(), charm: c, err: err}
	}
}

// actionHint names the one action the charm's status allows.
func actionHint(c charm.Charm) string {
	switch c.Status {
	case charm.StatusDraft:
		return "Draft charms can only be proven (p)"
	case charm.StatusReadyToBroadcast:
		return "Proven charms can only be enchanted (b)"
	case charm.StatusMinted:
		return "Minted charms can be beamed (c Cardano, d Dogecoin)"
	case charm.StatusBeamed:
		return "Beamed charms are final"
	}
	return "No action available"
}

func (m *Model) setFlash(s string, isErr bool) {
	m.flash = s
	m.flashErr = isErr
}

func (m *Model) toggleFocus() {
	if m.focus == focusPrompt {
		m.setFocus(focusList)
	} else {
		m.setFocus(focusPrompt)
	}
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusPrompt {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) cycleType(delta int) {
	n := len(charm.Types)
	m.typeIdx = (m.typeIdx + delta + n) % n
	m.updatePlaceholder()
}

func (m *Model) updatePlaceholder() {
	m.input.Placeholder = fmt.Sprintf("Forge a %s charm...", strings.ToLower(string(charm.Types[m.typeIdx])))
}

func (m *Model) moveCursor(delta int) {
	n := len(m.view.Charms)
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
}

func (m Model) selected() (charm.Charm, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Charms) {
		return charm.Charm{}, false
	}
	return m.view.Charms[m.cursor], true
}

// refresh re-reads the studio snapshot and re-renders derived panes.
func (m *Model) refresh() {
	if m.studio == nil {
		return
	}
	m.view = m.studio.Snapshot()
	if m.cursor >= len(m.view.Charms) {
		m.cursor = len(m.view.Charms) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.logs.SetContent(m.styles.Log.Render(strings.Join(m.view.Generation.Lines(), "\n")))
	m.logs.GotoBottom()
	m.renderDetail()
}

func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	listWidth := m.listWidth()
	detailWidth := m.width - listWidth - 4
	if detailWidth < 20 {
		detailWidth = 20
	}
	bodyHeight := m.height - 14
	if bodyHeight < 5 {
		bodyHeight = 5
	}
	m.detail.Width = detailWidth
	m.detail.Height = bodyHeight
	m.logs.Width = m.width - 4
	m.logs.Height = 5
	m.bar.Width = m.width - 30
	if m.bar.Width < 10 {
		m.bar.Width = 10
	}
	m.input.Width = m.width - 6
	m.nav.SetSize(m.width, m.height)
	m.renderDetail()
}

func (m Model) listWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	if w > 44 {
		w = 44
	}
	return w
}

func (m *Model) renderDetail() {
	c, ok := m.selected()
	if !ok {
		m.detail.SetContent(m.emptyState())
		return
	}
	m.detail.SetContent(m.md.Render(charmMarkdown(c), m.detail.Width-2))
	m.detail.GotoTop()
}

func (m Model) emptyState() string {
	return m.styles.Title.Render("ENCHANT BITCOIN") + "\n\n" +
		m.styles.Muted.Render("Forge smart assets natively on the Bitcoin ledger using recursive ZK proofs and the ToAD eUTXO model.")
}

// charmMarkdown is the detail pane document for one charm.
func charmMarkdown(c charm.Charm) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	fmt.Fprintf(&b, "**%s** · %s · `%s`\n\n", c.CurrentChain, c.Type.Label(), c.Status)
	if c.TxID != "" {
		b.WriteString("| Field | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| txid | `%s` |\n", c.TxID)
		fmt.Fprintf(&b, "| app id | `%s` |\n", c.AppID)
		fmt.Fprintf(&b, "| vk | `%s` |\n", c.VK)
		fmt.Fprintf(&b, "| owner | `%s` |\n", c.OwnerAddress)
		if c.DestinationChain != "" {
			fmt.Fprintf(&b, "| beamed to | %s |\n", c.DestinationChain)
		}
		b.WriteString("\n")
	}
	b.WriteString(c.Content)
	if len(c.Sources) > 0 {
		b.WriteString("\n\n## Sources\n\n")
		for _, s := range c.Sources {
			fmt.Fprintf(&b, "- [%s](%s)\n", s.Title, s.URI)
		}
	}
	return b.String()
}

// View renders the interface.
func (m Model) View() string {
	if m.showNav {
		return m.nav.View()
	}

	var sb strings.Builder
	sb.WriteString(m.headerView())
	sb.WriteString("\n")

	list := m.listView()
	detailStyle := m.styles.Panel
	listStyle := m.styles.Panel
	if m.focus == focusList {
		listStyle = m.styles.Focused
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		listStyle.Width(m.listWidth()).Render(list),
		detailStyle.Render(m.detail.View()),
	)
	sb.WriteString(body)
	sb.WriteString("\n")
	sb.WriteString(m.generationView())
	sb.WriteString("\n")
	sb.WriteString(m.typesView())
	sb.WriteString("\n")
	inputStyle := m.styles.Panel
	if m.focus == focusPrompt {
		inputStyle = m.styles.Focused
	}
	sb.WriteString(inputStyle.Render(m.input.View()))
	sb.WriteString("\n")
	sb.WriteString(m.footerView())
	return sb.String()
}

func (m Model) headerView() string {
	w := m.view.Wallet
	wallet := m.styles.Muted.Render(fmt.Sprintf("UTXO %s · ", shorten(w.FundingUTXO, 18))) +
		m.styles.Mono.Render(w.FundingValue+" sats") + " " + m.styles.Success.Render("UNSPENT")
	return Logo(m.styles) + "  " + wallet
}

func (m Model) listView() string {
	if len(m.view.Charms) == 0 {
		return m.styles.Muted.Render("No charms yet")
	}
	var lines []string
	for i, c := range m.view.Charms {
		marker := "  "
		title := m.styles.Body.Render(c.Title)
		if i == m.cursor {
			marker = m.styles.Selected.Render("▸ ")
			title = m.styles.Selected.Render(c.Title)
		}
		lines = append(lines, marker+title)
		lines = append(lines, "  "+m.styles.Chain.Render(string(c.CurrentChain))+" "+m.styles.StatusBadge(c.Status))
	}
	return strings.Join(lines, "\n")
}

func (m Model) generationView() string {
	g := m.view.Generation
	if len(g.Logs) == 0 && !g.IsGenerating {
		return m.flashView()
	}
	status := m.styles.Muted.Render("idle")
	if g.IsGenerating {
		status = m.spinner.View() + " " + m.styles.Title.Render(g.Step)
	} else if g.Step != "" {
		status = m.styles.Muted.Render(g.Step)
	}
	out := status + "  " + m.bar.ViewAs(float64(g.Progress)/100) + "\n" + m.logs.View()
	if f := m.flashView(); f != "" {
		out += "\n" + f
	}
	return out
}

func (m Model) flashView() string {
	if m.flash == "" {
		return ""
	}
	if m.flashErr {
		return m.styles.Error.Render(m.flash)
	}
	return m.styles.Success.Render(m.flash)
}

func (m Model) typesView() string {
	parts := make([]string, len(charm.Types))
	for i, t := range charm.Types {
		if i == m.typeIdx {
			parts[i] = m.styles.TypeActive.Render(t.Label())
		} else {
			parts[i] = m.styles.TypeInactive.Render(t.Label())
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) footerView() string {
	if m.focus == focusPrompt {
		return m.styles.Footer.Render("enter forge • ctrl+t type • tab charms • ctrl+c quit")
	}
	return m.styles.Footer.Render("↑↓ select • p prove • b enchant • c/d beam • t type • ? navigator • tab prompt • q quit")
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
