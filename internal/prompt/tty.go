package prompt

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kyleseven/ReLive-Compress/internal/term"
)

var (
	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func style(s lipgloss.Style, text string) string {
	if !term.Enabled() {
		return text
	}
	return s.Render(text)
}

type keyMap struct {
	Yes  key.Binding
	No   key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Yes:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:   key.NewBinding(key.WithKeys("n", "N", "enter", "esc"), key.WithHelp("n/enter", "no")),
	Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "abort")),
}

// confirmModel is a single-keystroke yes/no question.
type confirmModel struct {
	question string
	answer   bool
	done     bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, keys.Yes):
		m.answer, m.done = true, true
		return m, tea.Quit
	case key.Matches(k, keys.No), key.Matches(k, keys.Quit):
		m.answer, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.answer {
			answer = "yes"
		}
		return fmt.Sprintf("%s %s\n", style(questionStyle, m.question), answer)
	}
	return fmt.Sprintf("%s %s ", style(questionStyle, m.question), style(hintStyle, "[y/N]"))
}

// pauseModel waits for enter.
type pauseModel struct {
	message string
	done    bool
}

func (m pauseModel) Init() tea.Cmd { return nil }

func (m pauseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.Type == tea.KeyEnter || key.Matches(k, keys.Quit)) {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pauseModel) View() string {
	if m.done {
		return ""
	}
	return style(hintStyle, m.message)
}

// TTYPrompter runs a bubbletea program per question.
type TTYPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewTTYPrompter returns a TTYPrompter on the given terminal streams.
func NewTTYPrompter(in io.Reader, out io.Writer) *TTYPrompter {
	return &TTYPrompter{in: in, out: out}
}

// Confirm treats ctrl+c as no.
func (p *TTYPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	final, err := p.run(ctx, confirmModel{question: question})
	if err != nil {
		return false, err
	}
	return final.(confirmModel).answer, nil
}

func (p *TTYPrompter) Pause(ctx context.Context, message string) error {
	_, err := p.run(ctx, pauseModel{message: message})
	return err
}

func (p *TTYPrompter) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithoutSignalHandler(),
	)
	final, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("prompt: %w", err)
	}
	return final, nil
}
