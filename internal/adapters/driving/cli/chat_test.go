package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestChatCmd_LineMode(t *testing.T) {
	env := setupTestServices(t)
	env.answer.answers["What oil?"] = groundedAnswer("What oil?")
	rootCmd.SetIn(strings.NewReader("What oil?\n\nHow much?\nexit\nignored\n"))

	out, err := execute(t, "chat", "--plain")

	require.NoError(t, err)
	assert.Equal(t, []string{"What oil?", "How much?"}, env.answer.questions)
	require.Len(t, env.answer.sessions, 2)
	assert.Same(t, env.answer.sessions[0], env.answer.sessions[1])
	assert.Contains(t, out, "Check the oil weekly. Thanks!")
	assert.Contains(t, out, "I don't know. Thanks!")
}

func TestChatCmd_LineModeContinuesAfterError(t *testing.T) {
	env := setupTestServices(t)
	env.answer.err = &domain.AnswerGenerationError{Stage: domain.StageGenerate, Err: domain.ErrLLMUnavailable}
	rootCmd.SetIn(strings.NewReader("one\ntwo\n"))

	out, err := execute(t, "chat", "--plain")

	require.NoError(t, err)
	assert.Len(t, env.answer.questions, 2)
	assert.Equal(t, 2, strings.Count(out, "Error: answer (generate)"))
}

func TestChatCmd_NotConfigured(t *testing.T) {
	SetServices(nil)

	_, err := execute(t, "chat", "--plain")

	assert.EqualError(t, err, "answer service not configured")
}
