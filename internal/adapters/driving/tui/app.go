package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	input      *input.QuestionInput
	transcript *transcript.Transcript
	statusBar  *status.Bar

	// session holds the conversation history sent with each question.
	session *domain.Session

	// busy is true while a question is being answered.
	busy bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: transcript.New(s),
		statusBar:  status.NewBar(s, km),
		session:    ports.Answer.NewSession(),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("manualqa"),
		a.input.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.QuestionSubmitted:
		if a.busy {
			return a, nil
		}
		a.busy = true
		a.transcript.Ask(msg.Question)
		a.statusBar.SetState(status.StateThinking)
		return a, a.ask(msg.Question)

	case messages.AnswerCompleted:
		a.busy = false
		a.transcript.Resolve(msg.Answer, msg.Err)
		if msg.Err != nil {
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(errorSummary(msg.Err))
		} else {
			a.statusBar.SetState(status.StateReady)
			a.statusBar.SetMessage("")
		}
		a.statusBar.SetTurns(a.transcript.Len())
		return a, nil

	case messages.SessionReset:
		a.session = a.ports.Answer.NewSession()
		a.transcript.Clear()
		a.statusBar.Clear()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(key, a.keymap.Send):
		question := strings.TrimSpace(a.input.Value())
		if question == "" || a.busy {
			return a, nil
		}
		a.input.Reset()
		return a, func() tea.Msg { return messages.QuestionSubmitted{Question: question} }

	case keymap.Matches(key, a.keymap.Sources):
		a.transcript.ToggleSources()
		return a, nil

	case keymap.Matches(key, a.keymap.NewChat):
		if a.busy {
			return a, nil
		}
		return a, func() tea.Msg { return messages.SessionReset{} }

	case keymap.Matches(key, a.keymap.ScrollUp):
		a.transcript.ScrollUp()
		return a, nil

	case keymap.Matches(key, a.keymap.ScrollDown):
		a.transcript.ScrollDown()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// ask answers question in the background.
func (a *App) ask(question string) tea.Cmd {
	session := a.session
	return func() tea.Msg {
		answer, err := a.ports.Answer.Answer(a.ctx, session, question)
		return messages.AnswerCompleted{Question: question, Answer: answer, Err: err}
	}
}

// errorSummary shortens an answer failure for the status bar.
func errorSummary(err error) string {
	var ageErr *domain.AnswerGenerationError
	if errors.As(err, &ageErr) && ageErr.RateLimited() {
		return "provider rate limit reached, try again shortly"
	}
	return err.Error()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	header := a.styles.Title.Render("manualqa") + a.styles.Muted.Render("  ask your product manuals")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		a.transcript.View(),
		a.input.View(),
		a.statusBar.View(),
	)
}

// SetDimensions lays out the components for a terminal of the given size.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	// header, input box (3 lines) and status bar
	const chrome = 1 + 3 + 1
	a.transcript.SetSize(width, height-chrome)
	a.input.SetWidth(width)
	a.statusBar.SetWidth(width)
}

// Session returns the current conversation.
func (a *App) Session() *domain.Session {
	return a.session
}

// Busy reports whether a question is being answered.
func (a *App) Busy() bool {
	return a.busy
}

// Ready reports whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}
