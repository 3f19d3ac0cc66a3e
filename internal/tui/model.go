// Package tui runs a page's inline checks and quiz in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mind-engage/mindengage-studycentre/internal/check"
	"github.com/mind-engage/mindengage-studycentre/internal/course"
	"github.com/mind-engage/mindengage-studycentre/internal/quiz"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "choose")),
		Next:   key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/n", "next")),
		Prev:   key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/p", "back")),
		Submit: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit quiz")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Next, k.Prev, k.Submit, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// Options configures the runner.
type Options struct {
	NoColor bool
}

// Model walks the inline checks first, then each quiz question, then the result.
type Model struct {
	page   course.Page
	checks []*check.Check
	quiz   *quiz.Quiz

	step    int // 0..len(checks)-1 checks, then quiz questions, then result
	cursor  int
	message string

	keys    keyMap
	help    help.Model
	noColor bool
}

// NewModel fails when the page's questions would not survive validation, so a
// hand-built page cannot index past its options.
func NewModel(p course.Page, opts Options) (Model, error) {
	if err := course.ValidateQuestions(p.Checks); err != nil {
		return Model{}, fmt.Errorf("page %s checks: %w", p.ID, err)
	}
	m := Model{page: p, keys: defaultKeys(), help: help.New(), noColor: opts.NoColor}
	for _, q := range p.Checks {
		m.checks = append(m.checks, check.New(q))
	}
	if p.Quiz != nil {
		if err := course.ValidateQuestions(p.Quiz.Questions); err != nil {
			return Model{}, fmt.Errorf("page %s quiz: %w", p.ID, err)
		}
		m.quiz = quiz.New(p.Quiz.Title, p.Quiz.Questions)
	}
	return m, nil
}

func (m Model) empty() bool { return len(m.checks) == 0 && m.quiz == nil }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) quizLen() int {
	if m.quiz == nil {
		return 0
	}
	return len(m.quiz.Questions())
}

func (m Model) lastStep() int {
	n := len(m.checks) + m.quizLen()
	if m.quiz != nil {
		n++ // result
	}
	return n - 1
}

func (m Model) onResult() bool {
	return m.quiz != nil && m.step == m.lastStep()
}

// current returns the question shown at the current step.
func (m Model) current() (course.Question, bool) {
	if m.step < len(m.checks) {
		return m.checks[m.step].Question(), true
	}
	if i := m.step - len(m.checks); i >= 0 && i < m.quizLen() {
		return m.quiz.Questions()[i], true
	}
	return course.Question{}, false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = typed.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	q, hasQuestion := m.current()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if hasQuestion && m.cursor < len(q.Options)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Next):
		m.move(1)
	case key.Matches(msg, m.keys.Prev):
		m.move(-1)
	case key.Matches(msg, m.keys.Select):
		if hasQuestion {
			m.choose(q)
		}
	case key.Matches(msg, m.keys.Submit):
		if m.quiz != nil {
			if _, err := m.quiz.Submit(context.Background()); err != nil {
				m.message = err.Error()
				break
			}
			m.step, m.cursor, m.message = m.lastStep(), 0, ""
		}
	}
	return m, nil
}

func (m *Model) move(delta int) {
	next := m.step + delta
	if next < 0 || next > m.lastStep() {
		return
	}
	m.step, m.message = next, ""
	m.cursor = 0
	if q, ok := m.current(); ok {
		if sel, ok := m.selection(q); ok {
			m.cursor = sel
		}
	}
}

func (m *Model) choose(q course.Question) {
	m.message = ""
	if m.step < len(m.checks) {
		if err := m.checks[m.step].Select(m.cursor); err != nil {
			if errors.Is(err, check.ErrAnswerLocked) {
				m.message = "Already answered."
				return
			}
			m.message = err.Error()
		}
		return
	}
	if err := m.quiz.Select(context.Background(), q.ID, m.cursor); err != nil {
		if errors.Is(err, quiz.ErrSubmitted) {
			m.message = "Quiz already submitted."
			return
		}
		m.message = err.Error()
		return
	}
	// advance to the next quiz question after answering
	if m.step-len(m.checks) < m.quizLen()-1 {
		m.move(1)
	}
}

func (m Model) selection(q course.Question) (int, bool) {
	if m.step < len(m.checks) {
		return m.checks[m.step].Selected()
	}
	sel, ok := m.quiz.Selections()[string(q.ID)]
	return sel, ok
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(stylize(m.page.Title, m.noColor, lipgloss.Color("39"), true))
	b.WriteString("\n")
	b.WriteString(stylize(m.progress(), m.noColor, lipgloss.Color("244"), false))
	b.WriteString("\n\n")

	switch {
	case m.onResult():
		b.WriteString(m.renderResult())
	case m.step < len(m.checks):
		b.WriteString(m.renderCheck(m.checks[m.step].View()))
	default:
		if q, ok := m.current(); ok {
			b.WriteString(m.renderQuizQuestion(q))
		}
	}

	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(stylize(m.message, m.noColor, lipgloss.Color("220"), false))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) progress() string {
	switch {
	case m.empty():
		return "Nothing to answer on this page."
	case m.onResult():
		return "Result"
	case m.step < len(m.checks):
		return fmt.Sprintf("Quick check %d of %d", m.step+1, len(m.checks))
	default:
		return fmt.Sprintf("%s · question %d of %d", m.quiz.Title(), m.step-len(m.checks)+1, m.quizLen())
	}
}

func (m Model) renderCheck(v check.View) string {
	var b strings.Builder
	b.WriteString(v.Prompt + "\n\n")
	for _, opt := range v.Options {
		line := m.optionLine(opt.Index, opt.Text, opt.Selected)
		switch {
		case opt.Correct:
			line = stylize(line+"  ✓", m.noColor, lipgloss.Color("42"), false)
		case opt.Selected:
			line = stylize(line+"  ✗", m.noColor, lipgloss.Color("196"), false)
		}
		b.WriteString(line + "\n")
	}
	if v.Answered {
		verdict := "Not quite."
		if v.Correct != nil && *v.Correct {
			verdict = "Correct!"
		}
		b.WriteString("\n" + verdict)
		if v.Explanation != "" {
			b.WriteString(" " + v.Explanation)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderQuizQuestion(q course.Question) string {
	var b strings.Builder
	b.WriteString(q.Prompt + "\n\n")
	sel, answered := m.quiz.Selections()[string(q.ID)]
	for i, text := range q.Options {
		line := m.optionLine(i, text, answered && sel == i)
		if answered && sel == i {
			line = stylize(line, m.noColor, lipgloss.Color("39"), false)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderResult() string {
	res, ok := m.quiz.Result()
	if !ok {
		return "Press s to submit the quiz.\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("You scored %d out of %d.\n\n", res.Score.Correct, res.Score.Total))
	for i, qr := range res.Questions {
		mark := stylize("✗", m.noColor, lipgloss.Color("196"), false)
		if qr.Correct {
			mark = stylize("✓", m.noColor, lipgloss.Color("42"), false)
		}
		q := m.quiz.Questions()[i]
		b.WriteString(fmt.Sprintf("%s %s\n   Answer: %s\n", mark, q.Prompt, q.Options[qr.CorrectIndex]))
		if qr.Explanation != "" {
			b.WriteString("   " + qr.Explanation + "\n")
		}
	}
	return b.String()
}

func (m Model) optionLine(i int, text string, chosen bool) string {
	pointer := "  "
	if i == m.cursor && !m.onResult() {
		pointer = "> "
	}
	box := "( )"
	if chosen {
		box = "(•)"
	}
	return fmt.Sprintf("%s%s %s", pointer, box, text)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color, bold bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}

// Run starts the terminal program for p.
func Run(p course.Page, opts Options) error {
	m, err := NewModel(p, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m).Run()
	return err
}
