package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/ctfkit/ctf"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#444444"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateFilter
)

type interactiveModel struct {
	c        *ctf.Container
	filename string
	filter   textinput.Model
	detail   viewport.Model
	visible  []*ctf.Type
	selected int
	offset   int
	height   int
	width    int
	state    modelState
}

func newInteractiveModel(filename string, c *ctf.Container) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "name, kind or id"
	ti.Prompt = "/ "
	ti.Width = 30

	m := &interactiveModel{
		c:        c,
		filename: filename,
		filter:   ti,
		detail:   viewport.New(60, 20),
		height:   24,
		width:    100,
		state:    stateBrowse,
	}
	m.applyFilter()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detail.Width = max(msg.Width/2-2, 20)
		m.detail.Height = max(msg.Height-6, 5)
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "enter", "esc":
				m.filter.Blur()
				m.state = stateBrowse
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "home", "g":
			m.move(-len(m.visible))
		case "end", "G":
			m.move(len(m.visible))
		case "enter":
			m.follow()
		case "/":
			m.state = stateFilter
			return m, m.filter.Focus()
		case "esc":
			m.filter.SetValue("")
			m.applyFilter()
		default:
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *interactiveModel) listHeight() int {
	return max(m.height-6, 5)
}

func (m *interactiveModel) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.selected = min(max(m.selected+delta, 0), len(m.visible)-1)
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if h := m.listHeight(); m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
	m.refreshDetail()
}

// follow jumps to the type the selected type refers to, when it is local.
func (m *interactiveModel) follow() {
	if len(m.visible) == 0 {
		return
	}
	t := m.visible[m.selected]
	target := t.Ref
	if t.Kind == ctf.KindArray && t.Array != nil {
		target = t.Array.Contents
	}
	if target == 0 || target.InParent() {
		return
	}
	m.filter.SetValue("")
	m.applyFilter()
	m.move(int(target.Index()) - 1 - m.selected)
}

func (m *interactiveModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for _, t := range m.c.Types {
		if q == "" || strings.Contains(m.label(t), q) {
			m.visible = append(m.visible, t)
		}
	}
	m.selected, m.offset = 0, 0
	m.refreshDetail()
}

func (m *interactiveModel) label(t *ctf.Type) string {
	return strings.ToLower(fmt.Sprintf("%d %s %s", t.ID, t.Kind, m.c.TypeName(t.ID)))
}

func (m *interactiveModel) refreshDetail() {
	if len(m.visible) == 0 {
		m.detail.SetContent("no matching types")
		return
	}
	t := m.visible[m.selected]
	var b strings.Builder
	fmt.Fprintf(&b, "type %d (0x%04x)\n", t.ID, uint16(t.ID))
	fmt.Fprintf(&b, "kind   %s\n", t.Kind)
	fmt.Fprintf(&b, "name   %s\n", m.c.TypeName(t.ID))
	fmt.Fprintf(&b, "root   %v\n", t.Root)
	if size, ok := typeSize(t); ok {
		fmt.Fprintf(&b, "size   %s\n", size)
	}
	if t.LongSize || t.LongMembers {
		fmt.Fprintf(&b, "long   size %v, members %v\n", t.LongSize, t.LongMembers)
	}
	if lines := detailLines(m.c, t); len(lines) > 0 {
		b.WriteString("\n")
		for _, l := range lines {
			b.WriteString(l)
			b.WriteString("\n")
		}
	}
	if t.Kind == ctf.KindFunction {
		b.WriteString("\nparams\n")
		for i, p := range t.Params {
			if p == 0 && i == len(t.Params)-1 {
				b.WriteString("  ...\n")
				continue
			}
			fmt.Fprintf(&b, "  %d: %s\n", i, m.c.TypeName(p))
		}
	}
	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("CTF Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	fmt.Fprintf(&b, "  %d/%d types\n", len(m.visible), len(m.c.Types))
	if m.state == stateFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
	}
	b.WriteString("\n")

	var list strings.Builder
	if len(m.visible) == 0 {
		list.WriteString(errorStyle.Render("no matching types"))
	}
	end := min(m.offset+m.listHeight(), len(m.visible))
	listWidth := max(m.width/2-2, 20)
	for i := m.offset; i < end; i++ {
		t := m.visible[i]
		line := fmt.Sprintf("[%d] %s", t.ID, m.c.TypeName(t.ID))
		if len(line) > listWidth-2 {
			line = line[:listWidth-3] + "…"
		}
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + line))
		} else {
			list.WriteString("  " + line)
		}
		list.WriteString("\n")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Width(listWidth).Render(list.String()),
		paneStyle.Render(m.detail.View()),
	))
	b.WriteString("\n")
	if m.state == stateFilter {
		b.WriteString(helpStyle.Render("type to filter • enter/esc done"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ select • enter follow ref • / filter • pgup/pgdn scroll detail • q quit"))
	}
	return b.String()
}

func runInteractive(filename string, c *ctf.Container) error {
	p := tea.NewProgram(newInteractiveModel(filename, c), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
