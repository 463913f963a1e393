package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/fsutil"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// BackendName identifies this backend in config and index metadata.
const BackendName = "sqlite"

// Backend persists indexes as SQLite databases.
type Backend struct{}

var (
	_ driven.IndexBackend = (*Backend)(nil)
	_ memory.Writer       = (*Backend)(nil)
)

// NewBackend creates a SQLite index backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Name returns the backend name.
func (b *Backend) Name() string { return BackendName }

// Build embeds chunks and returns an index that persists through this backend.
func (b *Backend) Build(ctx context.Context, chunks []domain.Chunk, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	embedded, dims, err := memory.EmbedChunks(ctx, chunks, embedder)
	if err != nil {
		return nil, err
	}
	info := memory.Info{Backend: BackendName, Model: embedder.ModelName(), Dimensions: dims}
	return memory.NewIndex(embedded, info, embedder, b), nil
}

// Load reads a persisted index into memory.
func (b *Backend) Load(ctx context.Context, dir string, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	populated, err := fsutil.IsPopulated(dir)
	if err != nil {
		return nil, err
	}
	if !populated {
		return nil, domain.ErrNotFound
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrIndexUnavailable, dir, FileName)
	}

	s, err := openStore(dir)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	meta, err := s.meta(ctx)
	if err != nil {
		return nil, err
	}
	if model := meta[metaModel]; model != embedder.ModelName() {
		return nil, fmt.Errorf("%w: index uses %q, configured %q", domain.ErrIndexStale, model, embedder.ModelName())
	}
	dims, _ := strconv.Atoi(meta[metaDimensions])

	chunks, err := s.readChunks(ctx)
	if err != nil {
		return nil, err
	}
	info := memory.Info{Backend: BackendName, Model: meta[metaModel], Dimensions: dims}
	return memory.NewIndex(chunks, info, embedder, b), nil
}

// Write stores chunks and build info in a new database under dir.
func (b *Backend) Write(ctx context.Context, dir string, chunks []domain.Chunk, info memory.Info) error {
	s, err := openStore(dir)
	if err != nil {
		return err
	}
	defer s.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, position, content, source, page, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for chunk %d: %w", c.Position, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Position, c.Content, c.Source(), c.Page(),
			float32SliceToBytes(c.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Position, err)
		}
	}

	meta := map[string]string{
		metaBackend:    info.Backend,
		metaModel:      info.Model,
		metaDimensions: strconv.Itoa(info.Dimensions),
		metaChunks:     strconv.Itoa(len(chunks)),
		metaCreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO index_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing index meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

func (s *store) readChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position, content, embedding, metadata
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		var metadataJSON string
		if err := rows.Scan(&c.ID, &c.Position, &c.Content, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(blob)
		if c.Metadata, err = domain.UnmarshalMetadata([]byte(metadataJSON)); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata for chunk %d: %w", c.Position, err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
