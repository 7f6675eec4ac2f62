// Package tui is the interactive terminal front end.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/analysis"
	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/security"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/service"
)

type state int

const (
	stateInput state = iota
	stateLoading
	stateResult
	stateError
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// analysisDoneMsg carries the outcome of one analysis. seq identifies the
// submission so that abandoned runs can be told apart from the current one.
type analysisDoneMsg struct {
	seq    int
	result analysis.AnalysisResult
	err    error
}

type tickMsg struct{ seq int }

// Model is the bubbletea model for the analyzer screen
type Model struct {
	analyzer service.Analyzer
	timeout  time.Duration

	input   string
	state   state
	seq     int
	pending string
	cancel  context.CancelFunc
	frame   int
	status  string

	result      analysis.AnalysisResult
	err         error
	showFactors bool
}

// New creates the model. timeout bounds each analysis; zero means no limit.
func New(a service.Analyzer, timeout time.Duration) Model {
	return Model{analyzer: a, timeout: timeout}
}

// WithUsername pre-fills the input field
func (m Model) WithUsername(username string) Model {
	m.input = username
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case analysisDoneMsg:
		if msg.seq != m.seq || m.state != stateLoading {
			// abandoned run
			return m, nil
		}
		m.release()
		if msg.err != nil {
			m.state = stateError
			m.err = msg.err
			return m, nil
		}
		m.state = stateResult
		m.result = msg.result
		m.err = nil
		return m, nil

	case tickMsg:
		if msg.seq != m.seq || m.state != stateLoading {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tick(m.seq)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.release()
		return m, tea.Quit

	case tea.KeyEsc:
		if m.state == stateLoading {
			m.release()
			m.seq++
			m.state = stateInput
			m.status = fmt.Sprintf("Analysis of %s cancelled", m.pending)
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.state == stateLoading {
			return m, nil
		}
		return m.submit()

	case tea.KeyTab:
		m.showFactors = !m.showFactors
		return m, nil

	case tea.KeyBackspace:
		if m.state != stateLoading && m.input != "" {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}
		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		if m.state == stateLoading {
			return m, nil
		}
		// room for a leading "@"
		if len([]rune(m.input))+len(msg.Runes) <= security.MaxUsernameLength+1 {
			m.input += string(msg.Runes)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	username := security.NormalizeUsername(m.input)
	if err := security.ValidateUsername(username); err != nil {
		m.state = stateError
		m.err = err
		return m, nil
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if m.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	m.seq++
	m.cancel = cancel
	m.pending = username
	m.state = stateLoading
	m.status = ""
	m.frame = 0

	return m, tea.Batch(analyze(ctx, m.analyzer, m.seq, username), tick(m.seq))
}

// release cancels the in-flight analysis context, if any
func (m *Model) release() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func analyze(ctx context.Context, a service.Analyzer, seq int, username string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.Analyze(ctx, username)
		return analysisDoneMsg{seq: seq, result: result, err: err}
	}
}

func tick(seq int) tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("GitHub Profile Analyzer"))
	b.WriteString("\n\n")

	cursor := "▌"
	if m.state == stateLoading {
		cursor = ""
	}
	b.WriteString(styleInput.Render(styleLabel.Render("Username: ") + styleValue.Render(m.input) + cursor))
	b.WriteString("\n")

	switch m.state {
	case stateLoading:
		b.WriteString(styleTitle.Render(spinnerFrames[m.frame]))
		b.WriteString(" Analyzing " + m.pending + "...")
		b.WriteString("\n\n")
		b.WriteString(styleDim.Render("esc cancel  ctrl+c quit"))
		return b.String()

	case stateError:
		b.WriteString(styleError.Render(apperrors.UserMessage(m.err)))
		b.WriteString("\n\n")

	case stateResult:
		b.WriteString("\n")
		b.WriteString(RenderResult(m.result, m.showFactors))

	default:
		if m.status != "" {
			b.WriteString(styleDim.Render(m.status))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(styleDim.Render("enter analyze  tab factors  esc quit"))
	return b.String()
}
