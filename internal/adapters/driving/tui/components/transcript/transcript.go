// Package transcript renders the scrolling conversation for the chat.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// maxSourceRunes truncates cited passages.
const maxSourceRunes = 160

type entry struct {
	question string
	answer   *domain.Answer
	err      error
	pending  bool
}

// Transcript is the conversation view inside a viewport.
type Transcript struct {
	styles      *styles.Styles
	viewport    viewport.Model
	entries     []entry
	showSources bool
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := &Transcript{
		styles:      s,
		viewport:    viewport.New(80, 10),
		showSources: true,
	}
	t.refresh()
	return t
}

// Ask records a question waiting for its answer.
func (t *Transcript) Ask(question string) {
	t.entries = append(t.entries, entry{question: question, pending: true})
	t.refresh()
}

// Resolve completes the most recent pending question.
func (t *Transcript) Resolve(answer *domain.Answer, err error) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].pending {
			t.entries[i].pending = false
			t.entries[i].answer = answer
			t.entries[i].err = err
			break
		}
	}
	t.refresh()
}

// Clear removes every entry.
func (t *Transcript) Clear() {
	t.entries = nil
	t.refresh()
}

// Len returns the number of questions asked.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// ToggleSources shows or hides cited passages.
func (t *Transcript) ToggleSources() {
	t.showSources = !t.showSources
	t.refresh()
}

// ShowSources reports whether cited passages are shown.
func (t *Transcript) ShowSources() bool {
	return t.showSources
}

// ScrollUp moves half a page towards older turns.
func (t *Transcript) ScrollUp() {
	t.viewport.HalfViewUp()
}

// ScrollDown moves half a page towards newer turns.
func (t *Transcript) ScrollDown() {
	t.viewport.HalfViewDown()
}

// SetSize sets the viewport dimensions.
func (t *Transcript) SetSize(width, height int) {
	t.viewport.Width = max(width, 20)
	t.viewport.Height = max(height, 3)
	t.refresh()
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// Content renders the whole transcript.
func (t *Transcript) Content() string {
	if len(t.entries) == 0 {
		return t.styles.Muted.Render("Ask a question about your manuals.")
	}
	width := t.viewport.Width
	blocks := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		blocks = append(blocks, t.renderEntry(e, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.Content())
	t.viewport.GotoBottom()
}

func (t *Transcript) renderEntry(e entry, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	b.WriteString(t.styles.User.Render("You: "))
	b.WriteString(wrap.Render(e.question))
	b.WriteString("\n")

	switch {
	case e.pending:
		b.WriteString(t.styles.Muted.Render("Thinking..."))
	case e.err != nil:
		b.WriteString(t.styles.Error.Render(wrap.Render("Error: " + e.err.Error())))
	default:
		b.WriteString(t.styles.Assistant.Render("Assistant: "))
		if e.answer.Grounded {
			b.WriteString(wrap.Render(e.answer.Text))
		} else {
			b.WriteString(t.styles.Warning.Render(wrap.Render(e.answer.Text)))
		}
		if t.showSources {
			for _, c := range e.answer.SourceChunks {
				b.WriteString("\n")
				b.WriteString(t.styles.Source.Render(sourceLine(c)))
			}
		}
	}
	return b.String()
}

func sourceLine(c domain.Chunk) string {
	text := strings.Join(strings.Fields(c.Content), " ")
	if r := []rune(text); len(r) > maxSourceRunes {
		text = string(r[:maxSourceRunes]) + "…"
	}
	return fmt.Sprintf("%s p.%d: %s", c.Source(), c.Page(), text)
}
