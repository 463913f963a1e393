package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/fsutil"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Index is a VectorIndex over one chromem collection.
type Index struct {
	db       *chromem.DB
	col      *chromem.Collection
	info     memory.Info
	embedder driven.EmbeddingService
}

var _ driven.VectorIndex = (*Index)(nil)

// Query fetches the nearest candidates from chromem and selects by MMR.
func (x *Index) Query(ctx context.Context, text string, opts driven.QueryOptions) ([]domain.ScoredChunk, error) {
	if opts.K <= 0 {
		return nil, nil
	}
	// chromem rejects requests for more results than documents.
	n := min(max(opts.FetchK, opts.K), x.col.Count())
	if n == 0 {
		return nil, nil
	}

	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := x.col.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	scored := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		c, err := toChunk(r)
		if err != nil {
			return nil, err
		}
		scored = append(scored, domain.ScoredChunk{Chunk: c, Score: float64(r.Similarity)})
	}

	candidates := memory.RankCandidates(scored, opts.MinSimilarity, n)
	selected := memory.SelectMMR(candidates, opts.K, opts.Lambda)
	logger.Debug("chromem query: %d of %d candidates kept, %d selected", len(candidates), len(results), len(selected))
	return selected, nil
}

// Persist exports the collection and build info to dir.
func (x *Index) Persist(_ context.Context, dir string) error {
	info, err := json.MarshalIndent(x.info, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index info: %w", err)
	}
	return fsutil.WriteDir(dir, func(tmp string) error {
		if err := x.db.ExportToFile(filepath.Join(tmp, FileName), true, ""); err != nil {
			return fmt.Errorf("exporting collection: %w", err)
		}
		return os.WriteFile(filepath.Join(tmp, InfoFileName), info, 0o600)
	})
}

// Len returns the number of documents in the collection.
func (x *Index) Len() int {
	return x.col.Count()
}

// Info returns how the index was built.
func (x *Index) Info() memory.Info {
	return x.info
}

// Close is a no-op; the collection lives in process memory.
func (x *Index) Close() error {
	return nil
}

func toChunk(r chromem.Result) (domain.Chunk, error) {
	pos, err := strconv.Atoi(r.Metadata[keyPosition])
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("%w: document %s has bad position: %v", domain.ErrIndexUnavailable, r.ID, err)
	}
	meta, err := domain.UnmarshalMetadata([]byte(r.Metadata[keyMetadata]))
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("%w: document %s has bad metadata: %v", domain.ErrIndexUnavailable, r.ID, err)
	}
	return domain.Chunk{
		ID:        r.ID,
		Content:   r.Content,
		Position:  pos,
		Embedding: r.Embedding,
		Metadata:  meta,
	}, nil
}
