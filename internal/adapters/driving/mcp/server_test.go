package mcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing ports returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer: &mockAnswerService{},
			Index:  &mockIndexService{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"nothing set", &Ports{}, ErrMissingAnswerService},
		{"answer only", &Ports{Answer: &mockAnswerService{}}, ErrMissingIndexService},
		{"index only", &Ports{Index: &mockIndexService{}}, ErrMissingAnswerService},
		{"all set", &Ports{Answer: &mockAnswerService{}, Index: &mockIndexService{}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestServer_Session(t *testing.T) {
	server, err := NewServer(&Ports{Answer: &mockAnswerService{}, Index: &mockIndexService{}})
	require.NoError(t, err)

	a := server.session("conv-1")
	assert.Same(t, a, server.session("conv-1"))
	assert.NotSame(t, a, server.session("conv-2"))
	assert.NotSame(t, server.session(""), server.session(""))
}

func TestServer_SessionEvictsLeastRecentlyUsed(t *testing.T) {
	server, err := NewServer(&Ports{Answer: &mockAnswerService{}, Index: &mockIndexService{}},
		WithMaxSessions(2))
	require.NoError(t, err)

	a := server.session("conv-a")
	b := server.session("conv-b")
	assert.Same(t, a, server.session("conv-a"))

	server.session("conv-c")

	assert.Same(t, a, server.session("conv-a"))
	assert.NotSame(t, b, server.session("conv-b"))
	assert.LessOrEqual(t, server.sessions.Len(), 2)
}

func TestServer_SessionExpiresWhenIdle(t *testing.T) {
	server, err := NewServer(&Ports{Answer: &mockAnswerService{}, Index: &mockIndexService{}},
		WithSessionTTL(50*time.Millisecond))
	require.NoError(t, err)

	a := server.session("conv-1")
	time.Sleep(150 * time.Millisecond)

	assert.NotSame(t, a, server.session("conv-1"))
}

func TestNewServer_SessionOptionDefaults(t *testing.T) {
	server, err := NewServer(&Ports{Answer: &mockAnswerService{}, Index: &mockIndexService{}},
		WithMaxSessions(0), WithSessionTTL(-time.Second))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxSessions, server.maxSessions)
	assert.Equal(t, DefaultSessionTTL, server.sessionTTL)
}
