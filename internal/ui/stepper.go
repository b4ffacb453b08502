// Package ui renders the interactive stepping view: source listing with the
// current line highlighted, the register file, and the device logs.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"kone/internal/debug"
)

// runBudget bounds the "run to halt" key so a looping program cannot wedge
// the terminal.
const runBudget = 100_000

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	gutterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	haltStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	faultStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

type stepperModel struct {
	title   string
	session *debug.Session
	lines   []string
	vp      viewport.Model
	report  debug.StepReport
	status  string
	width   int
	ready   bool
}

// NewStepperModel returns a Bubble Tea model driving one stepping session.
func NewStepperModel(title string, session *debug.Session) tea.Model {
	fs, id := session.Files()
	content := string(fs.Get(id).Content)
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")

	return &stepperModel{
		title:   title,
		session: session,
		lines:   lines,
		width:   80,
	}
}

func (m *stepperModel) Init() tea.Cmd {
	return nil
}

func (m *stepperModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "n", "enter":
			m.step()
		case "g":
			m.runToHalt()
		case "up", "k":
			m.vp.LineUp(1)
		case "down", "j":
			m.vp.LineDown(1)
		}
		return m, nil
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		height := msg.Height - 8
		if height < 4 {
			height = 4
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = height
		}
		m.vp.SetContent(m.renderSource())
		return m, nil
	}
	return m, nil
}

func (m *stepperModel) step() {
	if m.session.Halted() {
		m.status = haltStyle.Render("halted")
		return
	}
	rep, err := m.session.Step()
	if err != nil {
		m.status = faultStyle.Render(err.Error())
		return
	}
	m.report = rep
	m.status = ""
	if m.session.Halted() {
		m.status = haltStyle.Render("halted")
	}
	if m.ready {
		m.vp.SetContent(m.renderSource())
	}
}

func (m *stepperModel) runToHalt() {
	for i := 0; i < runBudget; i++ {
		if m.session.Halted() {
			break
		}
		rep, err := m.session.Step()
		if err != nil {
			m.status = faultStyle.Render(err.Error())
			if m.ready {
				m.vp.SetContent(m.renderSource())
			}
			return
		}
		m.report = rep
	}
	m.status = haltStyle.Render("halted")
	if m.ready {
		m.vp.SetContent(m.renderSource())
	}
}

func (m *stepperModel) currentLine() uint32 {
	return m.session.SourceMap().LineOrZero(m.session.ProgramCounter())
}

func (m *stepperModel) renderSource() string {
	current := m.currentLine()
	var b strings.Builder
	for i, text := range m.lines {
		lineNo := uint32(i + 1)
		marker := "  "
		gutter := gutterStyle.Render(fmt.Sprintf("%4d", lineNo))
		line := truncate(text, m.width-8)
		if lineNo == current {
			marker = currentStyle.Render("=>")
			line = currentStyle.Render(line)
		}
		fmt.Fprintf(&b, "%s %s  %s\n", marker, gutter, line)
	}
	return b.String()
}

func (m *stepperModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.vp.View())
	} else {
		b.WriteString(m.renderSource())
	}
	b.WriteString("\n")

	regs := m.session.Registers()
	var parts []string
	for i, v := range regs {
		parts = append(parts, fmt.Sprintf("%s=%d", labelStyle.Render(fmt.Sprintf("R%d", i)), v))
	}
	b.WriteString("  " + strings.Join(parts, "  "))
	fmt.Fprintf(&b, "  %s=%04x\n", labelStyle.Render("PC"), m.session.ProgramCounter())

	fmt.Fprintf(&b, "  %s %v\n", labelStyle.Render("out:"), m.report.Output)
	if m.status != "" {
		b.WriteString("  " + m.status + "\n")
	}
	b.WriteString(gutterStyle.Render("  space/n step   g run   q quit"))
	b.WriteString("\n")
	return b.String()
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
