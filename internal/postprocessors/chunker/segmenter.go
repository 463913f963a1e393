package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Defaults for the generic strategy, matching the manual parameterisation.
const (
	DefaultGenericMaxSize = domain.DefaultManualMaxSize
	DefaultGenericOverlap = domain.DefaultManualOverlap
)

// Defaults for the header-aware strategy.
const (
	DefaultHeaderMaxSize = domain.DefaultHeaderMaxSize
	DefaultHeaderOverlap = domain.DefaultHeaderOverlap
)

// HeaderSeparators are the split points used by the header-aware strategy.
var HeaderSeparators = []string{HeaderSentinel, "\n " + HeaderSentinel}

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("manualqa.chunk"))

var _ driven.Segmenter = (*Segmenter)(nil)

// Segmenter splits page records into chunks with one of the two strategies.
type Segmenter struct {
	name       string
	headers    bool
	maxSize    int
	overlap    int
	separators []string
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithMaxSize sets the maximum chunk size in characters.
func WithMaxSize(size int) Option {
	return func(s *Segmenter) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// WithOverlap sets the overlap carried from one piece into the next.
func WithOverlap(overlap int) Option {
	return func(s *Segmenter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators sets the ordered separator list. Empty lists are ignored.
func WithSeparators(seps ...string) Option {
	return func(s *Segmenter) {
		var clean []string
		for _, sep := range seps {
			if sep != "" {
				clean = append(clean, sep)
			}
		}
		if len(clean) > 0 {
			s.separators = clean
		}
	}
}

// WithName sets the strategy name recorded on produced chunks.
func WithName(name string) Option {
	return func(s *Segmenter) {
		if name != "" {
			s.name = name
		}
	}
}

// NewGeneric creates the generic recursive splitter.
func NewGeneric(opts ...Option) *Segmenter {
	return newSegmenter(&Segmenter{
		name:       "generic",
		maxSize:    DefaultGenericMaxSize,
		overlap:    DefaultGenericOverlap,
		separators: []string{"\n"},
	}, opts)
}

// NewHeaderAware creates the splitter that only breaks at tagged headers.
func NewHeaderAware(opts ...Option) *Segmenter {
	return newSegmenter(&Segmenter{
		name:       string(domain.StrategyHeader),
		headers:    true,
		maxSize:    DefaultHeaderMaxSize,
		overlap:    DefaultHeaderOverlap,
		separators: HeaderSeparators,
	}, opts)
}

func newSegmenter(s *Segmenter, opts []Option) *Segmenter {
	for _, opt := range opts {
		opt(s)
	}
	// Ensure overlap doesn't reach chunk size
	if s.overlap >= s.maxSize {
		s.overlap = s.maxSize / 4
	}
	return s
}

// Name returns the strategy name.
func (s *Segmenter) Name() string {
	return s.name
}

// MaxSize returns the chunk size bound.
func (s *Segmenter) MaxSize() int {
	return s.maxSize
}

// SplitText splits one text into trimmed, non-empty chunk texts.
func (s *Segmenter) SplitText(text string) []string {
	if s.headers {
		text = Tag(text)
	}
	sp := splitter{maxSize: s.maxSize, overlap: s.overlap, separators: s.separators}

	var out []string
	for _, raw := range sp.split(text) {
		if s.headers {
			raw = StripSentinel(raw)
		}
		if t := strings.TrimSpace(raw); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Segment splits every page in order. A page without text fails the whole
// document with a *domain.DataIngestionError.
func (s *Segmenter) Segment(ctx context.Context, pages []domain.PageRecord) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if page.Text == nil {
			return nil, &domain.DataIngestionError{
				Source: page.Source,
				Page:   page.Page,
				Reason: "page has no text",
			}
		}

		for i, text := range s.SplitText(*page.Text) {
			if n := runeLen(text); n > s.maxSize {
				return nil, &domain.SegmentationError{
					Source: page.Source, Page: page.Page, Size: n, Max: s.maxSize,
				}
			}
			chunks = append(chunks, s.newChunk(page, i, text, len(chunks)))
		}
	}
	return chunks, nil
}

func (s *Segmenter) newChunk(page domain.PageRecord, index int, text string, position int) domain.Chunk {
	return domain.Chunk{
		ID:       ChunkID(page.Source, page.Page, index, text),
		Content:  text,
		Position: position,
		Metadata: domain.CloneMetadata(page.Metadata),
	}
}

// ChunkID derives a stable identifier from provenance and content.
func ChunkID(source string, page, index int, text string) string {
	name := fmt.Sprintf("%s|%d|%d|%s", source, page, index, text)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}
