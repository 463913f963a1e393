package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestIngestCmd_Flags(t *testing.T) {
	force := ingestCmd.Flags().Lookup("force")
	require.NotNil(t, force)
	assert.Equal(t, "f", force.Shorthand)

	watch := ingestCmd.Flags().Lookup("watch")
	require.NotNil(t, watch)
	assert.Equal(t, "w", watch.Shorthand)
}

func TestIngestCmd_LoadsExisting(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "ingest")

	require.NoError(t, err)
	assert.Equal(t, []bool{false}, env.index.forced)
	assert.Contains(t, out, "Index ready: 3 chunks (sqlite)")
}

func TestIngestCmd_ForceReportsBuild(t *testing.T) {
	env := setupTestServices(t)
	env.index.report = &domain.IndexReport{
		Built:   true,
		Backend: "chromem",
		Chunks:  42,
		Files:   []string{"a.pdf", "b.txt"},
		Failures: []error{
			&domain.LoadError{Path: "c.pdf", Err: domain.ErrInvalidInput},
		},
	}

	out, err := execute(t, "ingest", "--force")

	require.NoError(t, err)
	assert.Equal(t, []bool{true}, env.index.forced)
	assert.Contains(t, out, "Built index: 42 chunks from 2 file(s) (chromem)")
	assert.Contains(t, out, "skipped: load c.pdf")
}

func TestIngestCmd_Failure(t *testing.T) {
	env := setupTestServices(t)
	env.index.ensureErr = &domain.BuildError{Failures: []error{errors.New("bad.pdf")}}

	_, err := execute(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest failed")
	var buildErr *domain.BuildError
	assert.ErrorAs(t, err, &buildErr)
}

func TestIngestCmd_RejectsArgs(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "ingest", "extra")

	assert.Error(t, err)
}

func TestIngestCmd_NotConfigured(t *testing.T) {
	SetServices(nil)

	_, err := execute(t, "ingest")

	assert.EqualError(t, err, "index service not configured")
}
