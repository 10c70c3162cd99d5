package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/memstore"
	"github.com/scidata-io/ncbridge/transcoder"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2E7D32")).
			Padding(0, 1)

	varStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2E7D32"))

	dataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browseModel struct {
	err      error
	st       *memstore.Store
	filename string
	vars     []varEntry
	inputs   []textinput.Model
	data     string
	selected int
	focusIdx int
	state    browseState
}

type varEntry struct {
	name      string
	signature string
	sliceable bool
	hasData   bool
}

type browseState int

const (
	stateSelectVar browseState = iota
	stateSliceInput
	stateShowData
)

type storeLoadedMsg struct {
	err  error
	st   *memstore.Store
	vars []varEntry
}

type varDataMsg struct {
	err  error
	data string
}

func newBrowseModel(filename string) *browseModel {
	return &browseModel{filename: filename, state: stateSelectVar}
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadStore
}

func (m *browseModel) loadStore() tea.Msg {
	f, err := os.Open(m.filename)
	if err != nil {
		return storeLoadedMsg{err: err}
	}
	defer f.Close()

	st, err := memstore.Open(f, memstore.Config{})
	if err != nil {
		return storeLoadedMsg{err: err}
	}

	var vars []varEntry
	for _, name := range st.VarNames() {
		v, err := st.Var(name)
		if err != nil {
			continue
		}
		typ, err := st.Registry().Lookup(v.Type)
		if err != nil {
			continue
		}
		sig := typ.Name() + " " + name
		if len(v.Dims) > 0 {
			sig += "(" + strings.Join(v.Dims, ", ") + ")"
		}
		vars = append(vars, varEntry{
			name:      name,
			signature: sig,
			sliceable: transcoder.FixedLayout(typ) && len(v.Dims) > 0,
			hasData:   v.HasData(),
		})
	}
	return storeLoadedMsg{st: st, vars: vars}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateSliceInput && msg.String() == "q" {
				break
			}
			if m.st != nil {
				m.st.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectVar && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectVar && m.selected < len(m.vars)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectVar:
				if len(m.vars) == 0 {
					break
				}
				v := m.vars[m.selected]
				if !v.hasData {
					m.data = "<no data>"
					m.state = stateShowData
					break
				}
				if v.sliceable {
					m.prepareSliceInputs()
					m.state = stateSliceInput
					break
				}
				return m, m.readWhole(v.name)

			case stateSliceInput:
				return m, m.readSlice(m.vars[m.selected].name,
					m.inputs[0].Value(), m.inputs[1].Value())

			case stateShowData:
				m.state = stateSelectVar
				m.data = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateSliceInput {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
				return m, nil
			}

		case "esc":
			switch m.state {
			case stateSliceInput:
				m.state = stateSelectVar
				m.inputs = nil
			case stateShowData:
				m.state = stateSelectVar
				m.data = ""
				m.err = nil
			}
		}

	case storeLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.st = msg.st
		m.vars = msg.vars

	case varDataMsg:
		m.data = msg.data
		m.err = msg.err
		m.inputs = nil
		m.state = stateShowData
	}

	if m.state == stateSliceInput {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *browseModel) prepareSliceInputs() {
	m.inputs = make([]textinput.Model, 2)
	for i, label := range []string{"start", "count"} {
		ti := textinput.New()
		ti.Placeholder = "all"
		ti.Prompt = label + ": "
		ti.Width = 30
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *browseModel) readWhole(name string) tea.Cmd {
	return func() tea.Msg {
		val, err := m.st.GetVar(name, memstore.GetOptions{FitNumeric: true})
		if err != nil {
			return varDataMsg{err: err}
		}
		return varDataMsg{data: formatValue(val)}
	}
}

func (m *browseModel) readSlice(name, startSpec, countSpec string) tea.Cmd {
	return func() tea.Msg {
		start, err := parseIndexVector(startSpec)
		if err != nil {
			return varDataMsg{err: err}
		}
		count, err := parseIndexVector(countSpec)
		if err != nil {
			return varDataMsg{err: err}
		}
		val, err := m.st.GetSlice(name, start, count,
			memstore.GetOptions{FitNumeric: true})
		if err != nil {
			return varDataMsg{err: err}
		}
		return varDataMsg{data: formatValue(val)}
	}
}

// parseIndexVector reads a comma-separated index vector. Blank means
// the whole extent; "na" leaves one position at its default.
func parseIndexVector(s string) (hostval.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return hostval.Value{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if strings.EqualFold(p, "na") {
			out[i] = hostval.NAInt64
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return hostval.Value{}, fmt.Errorf("bad index %q", p)
		}
		out[i] = v
	}
	return hostval.Int64s(out), nil
}

func (m *browseModel) View() string {
	if m.err != nil && m.state != stateShowData {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.st == nil {
		return "Loading dataset..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("ncbdump"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectVar:
		if len(m.vars) == 0 {
			b.WriteString("Dataset has no variables.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select a variable:\n\n")
		for i, v := range m.vars {
			line := v.signature
			if !v.hasData {
				line += " (no data)"
			}
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter read • q quit"))

	case stateSliceInput:
		v := m.vars[m.selected]
		b.WriteString(fmt.Sprintf("Slice %s\n", varStyle.Render(v.name)))
		b.WriteString(typeStyle.Render("indices are zero-based, fastest dimension first"))
		b.WriteString("\n\n")
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter read • esc back"))

	case stateShowData:
		v := m.vars[m.selected]
		b.WriteString(fmt.Sprintf("%s:\n\n", varStyle.Render(v.signature)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(dataStyle.Render(m.data))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(filename string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	p := tea.NewProgram(newBrowseModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
