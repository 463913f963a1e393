package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

type mockIndexService struct {
	report    *domain.IndexReport
	ensureErr error
	results   []domain.ScoredChunk
	searchErr error
	forced    []bool
	lastQuery string
	lastK     int
}

func (m *mockIndexService) Ensure(_ context.Context, force bool) (*domain.IndexReport, error) {
	m.forced = append(m.forced, force)
	if m.ensureErr != nil {
		return nil, m.ensureErr
	}
	if m.report == nil {
		return &domain.IndexReport{Backend: "sqlite", Chunks: 3}, nil
	}
	return m.report, nil
}

func (m *mockIndexService) Search(_ context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	m.lastQuery, m.lastK = query, k
	return m.results, m.searchErr
}

func (m *mockIndexService) Close() error { return nil }

type mockAnswerService struct {
	answers   map[string]*domain.Answer
	err       error
	questions []string
	sessions  []*domain.Session
}

func (m *mockAnswerService) NewSession() *domain.Session {
	return domain.NewSession(fmt.Sprintf("s%d", len(m.questions)))
}

func (m *mockAnswerService) Answer(_ context.Context, s *domain.Session, q string) (*domain.Answer, error) {
	m.questions = append(m.questions, q)
	m.sessions = append(m.sessions, s)
	if m.err != nil {
		return nil, m.err
	}
	if a, ok := m.answers[q]; ok {
		return a, nil
	}
	return &domain.Answer{Question: q, Text: "I don't know. Thanks!"}, nil
}

type mockHealthService struct {
	statuses []domain.ServiceStatus
}

func (m *mockHealthService) Check(context.Context) []domain.ServiceStatus {
	return m.statuses
}

func chunkAt(source string, page int, content string) domain.Chunk {
	return domain.Chunk{
		Content:  content,
		Metadata: map[string]any{domain.MetaSource: source, domain.MetaPage: page},
	}
}

// testEnv installs mock services and returns them with a cleanup function.
type testEnv struct {
	index  *mockIndexService
	answer *mockAnswerService
	health *mockHealthService
}

func setupTestServices(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		index:  &mockIndexService{},
		answer: &mockAnswerService{answers: map[string]*domain.Answer{}},
		health: &mockHealthService{},
	}
	SetBootstrap(nil)
	SetServices(&Services{
		Answer:    env.answer,
		Index:     env.index,
		Health:    env.health,
		SourceDir: t.TempDir(),
	})
	t.Cleanup(func() { SetServices(nil) })
	return env
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		askJSON, searchJSON, searchK = false, false, 0
		ingestForce, ingestWatch, chatPlain = false, false, false
		configPath, verbose = "", false
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
