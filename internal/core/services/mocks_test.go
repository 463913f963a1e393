package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// mockEmbedder returns a fixed vector and records nothing.
type mockEmbedder struct{ model string }

func (m *mockEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }
func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}
func (m *mockEmbedder) Dimensions() int            { return 1 }
func (m *mockEmbedder) ModelName() string          { return m.model }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// mockIndex is a VectorIndex over fixed chunks.
type mockIndex struct {
	chunks     []domain.Chunk
	results    []domain.ScoredChunk
	queryErr   error
	persistErr error

	mu        sync.Mutex
	persisted []string
	lastOpts  driven.QueryOptions
	lastQuery string
	closed    bool
}

func (m *mockIndex) Query(_ context.Context, text string, opts driven.QueryOptions) ([]domain.ScoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery, m.lastOpts = text, opts
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if len(m.results) > opts.K {
		return m.results[:opts.K], nil
	}
	return m.results, nil
}

func (m *mockIndex) Persist(_ context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.persistErr != nil {
		return m.persistErr
	}
	m.persisted = append(m.persisted, dir)
	return nil
}

func (m *mockIndex) Len() int { return len(m.chunks) }

func (m *mockIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockBackend serves Load from a queue of results and Build from chunks.
type mockBackend struct {
	loads      []loadResult
	buildErr   error
	persistErr error

	loadCalls  int
	buildCalls int
	built      *mockIndex
}

type loadResult struct {
	index *mockIndex
	err   error
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Load(context.Context, string, driven.EmbeddingService) (driven.VectorIndex, error) {
	m.loadCalls++
	if len(m.loads) == 0 {
		return nil, domain.ErrNotFound
	}
	r := m.loads[0]
	m.loads = m.loads[1:]
	if r.err != nil {
		return nil, r.err
	}
	return r.index, nil
}

func (m *mockBackend) Build(_ context.Context, chunks []domain.Chunk, _ driven.EmbeddingService) (driven.VectorIndex, error) {
	m.buildCalls++
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	m.built = &mockIndex{chunks: chunks, persistErr: m.persistErr}
	return m.built, nil
}

// mockCorpus returns a fixed corpus and error.
type mockCorpus struct {
	corpus *domain.Corpus
	err    error
	calls  int
}

func (m *mockCorpus) Build(context.Context, domain.Manifest) (*domain.Corpus, error) {
	m.calls++
	return m.corpus, m.err
}

// mockRetriever implements driving.IndexService for the answer engine.
type mockRetriever struct {
	results []domain.ScoredChunk
	err     error
	queries []string
}

func (m *mockRetriever) Ensure(context.Context, bool) (*domain.IndexReport, error) {
	return &domain.IndexReport{}, nil
}

func (m *mockRetriever) Search(_ context.Context, query string, _ int) ([]domain.ScoredChunk, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

func (m *mockRetriever) Close() error { return nil }

// mockLLM records calls and returns canned replies.
type mockLLM struct {
	chatReply     string
	chatErr       error
	generateReply string
	generateErr   error

	chats     [][]driven.ChatMessage
	chatOpts  []driven.ChatOptions
	generates []string

	// block, when set, holds Chat until closed. started is signalled
	// when Chat begins.
	block   chan struct{}
	started chan struct{}
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.generates = append(m.generates, prompt)
	return m.generateReply, m.generateErr
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if m.started != nil {
		select {
		case m.started <- struct{}{}:
		default:
		}
	}
	if m.block != nil {
		<-m.block
	}
	m.chats = append(m.chats, messages)
	m.chatOpts = append(m.chatOpts, opts)
	return m.chatReply, m.chatErr
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// mapPrompts serves templates from a map.
type mapPrompts map[string]string

func (m mapPrompts) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", fmt.Errorf("prompt %q: %w", name, domain.ErrNotFound)
	}
	return p, nil
}

func (m mapPrompts) Reload() {}

var testPrompts = mapPrompts{
	driven.PromptAnswerSystem:     "CONTEXT<%[1]s> UNSURE<%[2]s> MAX<%[3]d> END<%[4]s>",
	driven.PromptCondenseQuestion: "HISTORY<%[1]s> FOLLOWUP<%[2]s>",
}

func scored(pos int, content string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:       fmt.Sprintf("c%d", pos),
			Content:  content,
			Position: pos,
			Metadata: map[string]any{domain.MetaSource: "GMU.pdf", domain.MetaPage: 1},
		},
		Score: score,
	}
}
