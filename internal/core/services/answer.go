package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure AnswerEngine implements the interface.
var _ driving.AnswerService = (*AnswerEngine)(nil)

// contextSeparator joins retrieved chunk texts in the prompt.
const contextSeparator = "\n\n"

// AnswerEngine answers questions from retrieved manual passages.
// It is safe for concurrent use across sessions; each session admits one
// question at a time.
type AnswerEngine struct {
	retriever driving.IndexService
	llm       driven.LLMService
	prompts   driven.PromptStore
	cfg       domain.AnswerConfig
}

// NewAnswerEngine creates an answer engine.
func NewAnswerEngine(
	retriever driving.IndexService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg domain.AnswerConfig,
) *AnswerEngine {
	return &AnswerEngine{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		cfg:       cfg,
	}
}

// NewSession starts an empty conversation with a random identifier.
func (e *AnswerEngine) NewSession() *domain.Session {
	return domain.NewSession(uuid.NewString())
}

// Answer runs retrieval and generation for one question. The user and
// assistant turns are appended to session only on success.
func (e *AnswerEngine) Answer(ctx context.Context, session *domain.Session, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &domain.AnswerGenerationError{Stage: domain.StageInput, Err: domain.ErrEmptyQuestion}
	}
	release, err := session.Acquire()
	if err != nil {
		return nil, &domain.AnswerGenerationError{Stage: domain.StageInput, Err: err}
	}
	defer release()

	logger.Section("Answer")
	defer logger.Timed("answer")()

	history := domain.WindowHistory(session.History(), e.cfg.HistoryWindow)

	query := question
	if e.cfg.CondenseQuestion && len(history) > 0 {
		query, err = e.condense(ctx, history, question)
		if err != nil {
			return nil, &domain.AnswerGenerationError{Stage: domain.StageCondense, Err: err}
		}
	}

	results, err := e.retriever.Search(ctx, query, 0)
	if err != nil {
		return nil, &domain.AnswerGenerationError{Stage: domain.StageRetrieve, Err: err}
	}

	answer := &domain.Answer{Question: question}
	if len(results) == 0 {
		logger.Info("No relevant context for %q", query)
		answer.Text = e.cfg.DontKnowPhrase + " " + e.cfg.ClosingPhrase
	} else {
		answer.SourceChunks = make([]domain.Chunk, len(results))
		for i, r := range results {
			answer.SourceChunks[i] = r.Chunk
		}
		answer.Text, err = e.generate(ctx, history, question, answer.SourceChunks)
		if err != nil {
			return nil, &domain.AnswerGenerationError{Stage: domain.StageGenerate, Err: err}
		}
		answer.Grounded = true
	}

	session.Append(
		domain.ConversationTurn{Role: domain.RoleUser, Content: question},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: answer.Text},
	)
	return answer, nil
}

// condense rewrites a follow-up into a standalone question. An empty model
// reply keeps the original question.
func (e *AnswerEngine) condense(ctx context.Context, history []domain.ConversationTurn, question string) (string, error) {
	tmpl, err := e.prompts.Load(driven.PromptCondenseQuestion)
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(tmpl, domain.SerializeHistory(history), question)

	rewritten, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question, nil
	}
	logger.Debug("Condensed %q to %q", question, rewritten)
	return rewritten, nil
}

func (e *AnswerEngine) generate(
	ctx context.Context,
	history []domain.ConversationTurn,
	question string,
	chunks []domain.Chunk,
) (string, error) {
	tmpl, err := e.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", err
	}
	system := fmt.Sprintf(tmpl, BuildContext(chunks), e.cfg.DontKnowPhrase, e.cfg.MaxSentences, e.cfg.ClosingPhrase)

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: UserMessage(history, question)},
	}
	text, err := e.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// BuildContext joins chunk texts with blank lines in retrieval order.
func BuildContext(chunks []domain.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	return strings.Join(texts, contextSeparator)
}

// UserMessage renders the history as "role: content" lines followed by the
// question. Without history it is the bare question.
func UserMessage(history []domain.ConversationTurn, question string) string {
	if len(history) == 0 {
		return question
	}
	return domain.SerializeHistory(history) + "\n" + string(domain.RoleUser) + ": " + question
}
