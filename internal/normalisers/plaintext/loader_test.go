package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Extensions(t *testing.T) {
	assert.Equal(t, []string{".txt", ".text"}, New().Extensions())
}

func TestLoader_SinglePage(t *testing.T) {
	path := write(t, "notes.txt", "Line one\nLine two")

	pages, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, "notes.txt", pages[0].Source)
	assert.Equal(t, 1, pages[0].Page)
	assert.Equal(t, "Line one\nLine two", *pages[0].Text)
	assert.Equal(t, path, pages[0].Metadata[domain.MetaPath])
	assert.Equal(t, 1, pages[0].Metadata[domain.MetaTotalPages])
}

func TestLoader_FormFeedPages(t *testing.T) {
	path := write(t, "manual.txt", "page one\fpage two\fpage three\f")

	pages, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	for i, want := range []string{"page one", "page two", "page three"} {
		assert.Equal(t, want, *pages[i].Text)
		assert.Equal(t, i+1, pages[i].Page)
		assert.Equal(t, i+1, pages[i].Metadata[domain.MetaPage])
		assert.Equal(t, 3, pages[i].Metadata[domain.MetaTotalPages])
	}
}

func TestLoader_InvalidUTF8(t *testing.T) {
	path := write(t, "bin.txt", "\xff\xfe\x00")

	_, err := New().Load(context.Background(), path)

	var loadErr *domain.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoader_Missing(t *testing.T) {
	_, err := New().Load(context.Background(), "/nonexistent/manual.txt")

	var loadErr *domain.LoadError
	assert.ErrorAs(t, err, &loadErr)
}
