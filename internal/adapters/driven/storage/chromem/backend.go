// Package chromem persists the vector index with chromem-go, an embeddable
// vector database. Nearest-neighbour candidates come from the chromem
// collection; diversity selection uses the shared MMR from package memory.
package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/fsutil"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// BackendName identifies this backend in config and index metadata.
const BackendName = "chromem"

// File names inside an index directory.
const (
	FileName     = "index.gob.gz"
	InfoFileName = "index.json"
)

// Document metadata keys. chromem metadata is string-valued, so chunk
// metadata travels as one JSON document.
const (
	keyPosition = "position"
	keyMetadata = "metadata"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "manuals"

// Backend stores indexes as exported chromem databases.
type Backend struct {
	collection string
}

var _ driven.IndexBackend = (*Backend)(nil)

// NewBackend creates a chromem backend using the named collection.
func NewBackend(collection string) *Backend {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Backend{collection: collection}
}

// Name returns the backend name.
func (b *Backend) Name() string { return BackendName }

// Build embeds chunks and loads them into a new in-memory collection.
func (b *Backend) Build(ctx context.Context, chunks []domain.Chunk, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	embedded, dims, err := memory.EmbedChunks(ctx, chunks, embedder)
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(b.collection, map[string]string{"model": embedder.ModelName()}, embedFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	docs := make([]chromem.Document, len(embedded))
	for i, c := range embedded {
		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshalling metadata for chunk %d: %w", c.Position, err)
		}
		docs[i] = chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Embedding: c.Embedding,
			Metadata: map[string]string{
				keyPosition: strconv.Itoa(c.Position),
				keyMetadata: string(metadataJSON),
			},
		}
	}
	if len(docs) > 0 {
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("adding documents: %w", err)
		}
	}

	info := memory.Info{Backend: BackendName, Model: embedder.ModelName(), Dimensions: dims}
	return &Index{db: db, col: col, info: info, embedder: embedder}, nil
}

// Load imports a persisted chromem database.
func (b *Backend) Load(ctx context.Context, dir string, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	populated, err := fsutil.IsPopulated(dir)
	if err != nil {
		return nil, err
	}
	if !populated {
		return nil, domain.ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(dir, InfoFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrIndexUnavailable, dir, InfoFileName)
	}
	if err != nil {
		return nil, fmt.Errorf("reading index info: %w", err)
	}
	var info memory.Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding index info: %w", err)
	}
	if info.Model != embedder.ModelName() {
		return nil, fmt.Errorf("%w: index uses %q, configured %q", domain.ErrIndexStale, info.Model, embedder.ModelName())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db := chromem.NewDB()
	if err := db.ImportFromFile(filepath.Join(dir, FileName), ""); err != nil {
		return nil, fmt.Errorf("%w: importing %s: %v", domain.ErrIndexUnavailable, dir, err)
	}
	col := db.GetCollection(b.collection, embedFunc(embedder))
	if col == nil {
		return nil, fmt.Errorf("%w: collection %q not found in %s", domain.ErrIndexUnavailable, b.collection, dir)
	}
	return &Index{db: db, col: col, info: info, embedder: embedder}, nil
}

// embedFunc adapts an EmbeddingService for documents added without vectors.
func embedFunc(embedder driven.EmbeddingService) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
}
