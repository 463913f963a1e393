// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerCompleted carries the answer, or the failure, back to the model.
type AnswerCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// SessionReset starts a new conversation.
type SessionReset struct{}
