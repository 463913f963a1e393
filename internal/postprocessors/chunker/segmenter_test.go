package chunker

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("generic defaults", func(t *testing.T) {
		s := NewGeneric()
		assert.Equal(t, 20, s.maxSize)
		assert.Equal(t, 10, s.overlap)
		assert.Equal(t, []string{"\n"}, s.separators)
		assert.Equal(t, "generic", s.Name())
	})

	t.Run("header defaults", func(t *testing.T) {
		s := NewHeaderAware()
		assert.Equal(t, 250, s.maxSize)
		assert.Equal(t, 0, s.overlap)
		assert.Equal(t, HeaderSeparators, s.separators)
		assert.Equal(t, "header", s.Name())
	})

	t.Run("options", func(t *testing.T) {
		s := NewGeneric(WithMaxSize(100), WithOverlap(5), WithSeparators("\n\n", "\n"), WithName("manual"))
		assert.Equal(t, 100, s.MaxSize())
		assert.Equal(t, 5, s.overlap)
		assert.Equal(t, []string{"\n\n", "\n"}, s.separators)
		assert.Equal(t, "manual", s.Name())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		s := NewGeneric(WithMaxSize(0), WithOverlap(-1), WithSeparators(""), WithName(""))
		assert.Equal(t, DefaultGenericMaxSize, s.maxSize)
		assert.Equal(t, DefaultGenericOverlap, s.overlap)
		assert.Equal(t, []string{"\n"}, s.separators)
		assert.Equal(t, "generic", s.Name())
	})

	t.Run("overlap reduced when not below size", func(t *testing.T) {
		s := NewGeneric(WithMaxSize(8), WithOverlap(8))
		assert.Equal(t, 2, s.overlap)
	})
}

func TestGeneric_LineScenario(t *testing.T) {
	s := NewGeneric(WithMaxSize(20), WithOverlap(10), WithSeparators("\n"))

	chunks := s.SplitText("Line one\nLine two\nLine three")

	require.Len(t, chunks, 3)
	assert.Equal(t, "Line one", chunks[0])
	assert.Equal(t, "Line one\nLine two", chunks[1])
	assert.Equal(t, "Line two\nLine three", chunks[2])
	for i, want := range []string{"Line one", "Line two", "Line three"} {
		assert.Contains(t, chunks[i], want)
		assert.LessOrEqual(t, utf8.RuneCountInString(chunks[i]), 20)
	}
}

func TestHeaderAware_Scenario(t *testing.T) {
	s := NewHeaderAware()

	chunks := s.SplitText("1 Introduction\nSome body text.\n2 Installation\nMore text.")

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0], "1 Introduction"))
	assert.True(t, strings.HasPrefix(chunks[1], "2 Installation"))
	for _, c := range chunks {
		assert.NotContains(t, c, HeaderSentinel)
	}
}

func TestHeaderAware_NoHeaders(t *testing.T) {
	s := NewHeaderAware()
	chunks := s.SplitText("  Just a paragraph without numbering.  ")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Just a paragraph without numbering.", chunks[0])
}

func TestHeaderAware_LongSectionIsBounded(t *testing.T) {
	s := NewHeaderAware(WithMaxSize(40))
	body := strings.Repeat("word ", 30)
	chunks := s.SplitText("3 Lubrication\n" + body)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasPrefix(chunks[0], "3 Lubrication"))
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 40)
		assert.NotContains(t, c, HeaderSentinel)
	}
}

func TestGeneric_HardSplitWithoutSeparators(t *testing.T) {
	s := NewGeneric(WithMaxSize(20), WithOverlap(10))
	text := strings.Repeat("x", 45)

	chunks := s.SplitText(text)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 20)
	}
}

func TestGeneric_MultibyteRunesCountOnce(t *testing.T) {
	s := NewGeneric(WithMaxSize(5), WithOverlap(0))
	chunks := s.SplitText("ääääää\nöö")

	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 5)
	}
	assert.Equal(t, "ääääääöö", strings.Join(chunks, ""))
}

func nonSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestSplit_NoCharacterLoss(t *testing.T) {
	texts := []string{
		"Line one\nLine two\nLine three",
		"Remove the cover.\n\nLoosen the four M6 bolts\nthen lift the housing away from the frame carefully.",
		strings.Repeat("abcdefghij", 9) + "\nshort\n" + strings.Repeat("long line with spaces ", 4),
		"1 Scope\nThis manual covers the GMU.\n2 Safety\nDisconnect power first.\n2.1 Lockout\nApply tags.",
		"ünïcödé\ttabs\r\nand CRLF lines\r\nend",
	}

	segmenters := map[string]*Segmenter{
		"generic":       NewGeneric(WithOverlap(0)),
		"generic wide":  NewGeneric(WithMaxSize(60), WithOverlap(0), WithSeparators("\n\n", "\n", " ")),
		"header":        NewHeaderAware(),
		"header narrow": NewHeaderAware(WithMaxSize(30)),
	}

	for name, s := range segmenters {
		for _, text := range texts {
			chunks := s.SplitText(text)
			assert.Equal(t, nonSpace(text), nonSpace(strings.Join(chunks, "")), "%s: %q", name, text)
		}
	}
}

func TestSplit_OverlapChunksAreContiguousText(t *testing.T) {
	s := NewGeneric(WithMaxSize(30), WithOverlap(10))
	text := "Check oil level.\nTop up if low.\nReplace the filter every 500 hours.\nRecord the service."

	chunks := s.SplitText(text)
	require.NotEmpty(t, chunks)

	covered := make([]bool, len(text))
	from := 0
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 30)
		idx := strings.Index(text[from:], c)
		require.GreaterOrEqual(t, idx, 0, "chunk %q is not contiguous source text", c)
		start := from + idx
		for i := start; i < start+len(c); i++ {
			covered[i] = true
		}
		from = start
	}
	for i, r := range text {
		if !unicode.IsSpace(r) {
			assert.True(t, covered[i], "byte %d (%q) not covered", i, r)
		}
	}
}

func TestSegment_MetadataIsDeepCopy(t *testing.T) {
	page := domain.NewPageRecord("manual.pdf", 2, "Line one\nLine two\nLine three")
	page.Metadata["nested"] = map[string]any{"rev": "4"}

	chunks, err := NewGeneric().Segment(context.Background(), []domain.PageRecord{page})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for _, c := range chunks {
		assert.Equal(t, page.Metadata, c.Metadata)
		assert.NotEqual(t, reflect.ValueOf(page.Metadata).Pointer(), reflect.ValueOf(c.Metadata).Pointer())
	}
	assert.NotEqual(t,
		reflect.ValueOf(chunks[0].Metadata).Pointer(),
		reflect.ValueOf(chunks[1].Metadata).Pointer())

	chunks[0].Metadata["nested"].(map[string]any)["rev"] = "5"
	assert.Equal(t, "4", page.Metadata["nested"].(map[string]any)["rev"])
	assert.Equal(t, "4", chunks[1].Metadata["nested"].(map[string]any)["rev"])
}

func TestSegment_OrderAndPositions(t *testing.T) {
	pages := []domain.PageRecord{
		domain.NewPageRecord("a.pdf", 1, "1 Intro\nalpha\n2 Setup\nbeta"),
		domain.NewPageRecord("a.pdf", 2, "   "),
		domain.NewPageRecord("a.pdf", 3, "3 Use\ngamma"),
	}

	chunks, err := NewHeaderAware().Segment(context.Background(), pages)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 1, chunks[0].Page())
	assert.Equal(t, 1, chunks[1].Page())
	assert.Equal(t, 3, chunks[2].Page())
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.NotEmpty(t, c.Content)
		assert.Equal(t, strings.TrimSpace(c.Content), c.Content)
	}
}

func TestSegment_NilTextFails(t *testing.T) {
	good := domain.NewPageRecord("b.pdf", 1, "fine")
	bad := domain.PageRecord{Source: "b.pdf", Page: 2, Metadata: map[string]any{}}

	chunks, err := NewGeneric().Segment(context.Background(), []domain.PageRecord{good, bad})

	require.Error(t, err)
	assert.Nil(t, chunks)
	var ingestErr *domain.DataIngestionError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, "b.pdf", ingestErr.Source)
	assert.Equal(t, 2, ingestErr.Page)
}

func TestSegment_EmptyInput(t *testing.T) {
	chunks, err := NewGeneric().Segment(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSegment_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGeneric().Segment(ctx, []domain.PageRecord{domain.NewPageRecord("c.pdf", 1, "x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSegment_DeterministicIDs(t *testing.T) {
	pages := []domain.PageRecord{domain.NewPageRecord("d.pdf", 1, "Line one\nLine two\nLine three")}

	first, err := NewGeneric().Segment(context.Background(), pages)
	require.NoError(t, err)
	second, err := NewGeneric().Segment(context.Background(), pages)
	require.NoError(t, err)

	require.Equal(t, first, second)
	ids := map[string]bool{}
	for _, c := range first {
		ids[c.ID] = true
	}
	assert.Len(t, ids, len(first))
	assert.Equal(t, ChunkID("d.pdf", 1, 0, "Line one"), first[0].ID)
}
