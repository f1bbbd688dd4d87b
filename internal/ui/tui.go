package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIBrowser displays hits in a bubbletea list, with a detail pane for
// the selected hit's decoded fields.
type TUIBrowser struct {
	cfg    Config
	styles Styles
}

// NewTUIBrowser creates a TUI browser. Returns an error if the output is
// not a TTY.
func NewTUIBrowser(cfg Config) (*TUIBrowser, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	styles := DefaultStyles()
	if cfg.NoColor || DetectNoColor() {
		styles = NoColorStyles()
	}
	return &TUIBrowser{cfg: cfg, styles: styles}, nil
}

// Run implements Browser.
func (b *TUIBrowser) Run(rows []Row) error {
	m := newHitListModel(rows, b.cfg.Query, b.styles)

	var opts []tea.ProgramOption
	if f, ok := b.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	opts = append(opts, tea.WithAltScreen())

	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

// hitItem adapts a Row to list.Item.
type hitItem struct{ row Row }

func (h hitItem) Title() string {
	if title, ok := h.row.Fields["title"]; ok && title != "" {
		return title
	}
	return h.row.DocID
}

func (h hitItem) Description() string {
	parts := make([]string, 0, 2)
	parts = append(parts, fmt.Sprintf("score %.4f", h.row.Score))
	if len(h.row.Rank) > 0 {
		var ranks []string
		for _, name := range []string{"text", "vector"} {
			if r, ok := h.row.Rank[name]; ok {
				ranks = append(ranks, fmt.Sprintf("%s#%d", name, r))
			}
		}
		if len(ranks) > 0 {
			parts = append(parts, strings.Join(ranks, " "))
		}
	}
	return strings.Join(parts, "  ")
}

func (h hitItem) FilterValue() string { return h.Title() }

type hitListModel struct {
	list   list.Model
	rows   []Row
	styles Styles
	query  string
}

func newHitListModel(rows []Row, query string, styles Styles) *hitListModel {
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = hitItem{row: r}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color(ColorLime)).BorderForeground(lipgloss.Color(ColorLime))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color(ColorLimeDim)).BorderForeground(lipgloss.Color(ColorLime))

	l := list.New(items, delegate, 80, 24)
	title := "hybridsearch results"
	if query != "" {
		title = fmt.Sprintf("hybridsearch results · %q", query)
	}
	l.Title = title
	l.Styles.Title = l.Styles.Title.Background(lipgloss.Color(ColorLime)).Foreground(lipgloss.Color("0"))

	return &hitListModel{list: l, rows: rows, styles: styles, query: query}
}

func (m *hitListModel) Init() tea.Cmd { return nil }

func (m *hitListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := lipgloss.NewStyle().Margin(1, 2).GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *hitListModel) View() string {
	listView := m.list.View()

	selected, ok := m.list.SelectedItem().(hitItem)
	if !ok {
		return listView
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, listView, m.renderDetail(selected.row))
}

func (m *hitListModel) renderDetail(row Row) string {
	var lines []string
	lines = append(lines, m.styles.Header.Render("doc "+row.DocID))
	lines = append(lines, m.styles.Label.Render(fmt.Sprintf("rrf score %.4f", row.Score)))
	lines = append(lines, "")

	order := append([]string(nil), row.FieldOrder...)
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		listed[k] = true
	}
	for k := range row.Fields {
		if !listed[k] {
			order = append(order, k)
		}
	}
	for _, k := range order {
		v, ok := row.Fields[k]
		if !ok {
			continue
		}
		lines = append(lines, m.styles.Label.Render(k+":"))
		lines = append(lines, v)
		lines = append(lines, "")
	}

	content := strings.Join(lines, "\n")
	return m.styles.Panel.Width(44).Render(content)
}

var _ Browser = (*TUIBrowser)(nil)
