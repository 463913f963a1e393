package mcp

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	sessions []*domain.Session
}

func (m *mockAnswerService) NewSession() *domain.Session {
	return domain.NewSession("s")
}

func (m *mockAnswerService) Answer(_ context.Context, session *domain.Session, _ string) (*domain.Answer, error) {
	m.sessions = append(m.sessions, session)
	return m.answer, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	results []domain.ScoredChunk
	err     error
	lastK   int
}

func (m *mockIndexService) Ensure(context.Context, bool) (*domain.IndexReport, error) {
	return &domain.IndexReport{}, nil
}

func (m *mockIndexService) Search(_ context.Context, _ string, k int) ([]domain.ScoredChunk, error) {
	m.lastK = k
	return m.results, m.err
}

func (m *mockIndexService) Close() error { return nil }

func chunk(source string, page int, content string) domain.Chunk {
	return domain.Chunk{
		Content:  content,
		Metadata: map[string]any{domain.MetaSource: source, domain.MetaPage: page},
	}
}
