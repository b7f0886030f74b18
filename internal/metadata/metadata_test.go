package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_HappyPath(t *testing.T) {
	m, err := Read([]RawEntry{
		{Key: "medusa:stage", Tokens: []string{"0"}},
		{Key: "medusa:deps", Tokens: []string{"one", "two"}},
		{Key: "medusa:deps", Tokens: []string{"three"}},
		{Key: "medusa:timeout", Tokens: []string{"2,5,3"}},
		{Key: "Documentation", Tokens: []string{"ignored, not ours"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, m.Stage.Tokens)
	require.Len(t, m.Deps, 2)
	require.NotNil(t, m.Timeout)
	assert.Nil(t, m.For)
}

func TestRead_UnknownMedusaKeyErrors(t *testing.T) {
	_, err := Read([]RawEntry{
		{Key: "medusa:stage", Tokens: []string{"0"}},
		{Key: "medusa:deps", Tokens: []string{"one"}},
		{Key: "medusa:bogus", Tokens: []string{"x"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKey))
}

func TestRead_MissingStageErrors(t *testing.T) {
	_, err := Read([]RawEntry{
		{Key: "medusa:deps", Tokens: []string{"one"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKey))
}

func TestRead_MissingDepsErrors(t *testing.T) {
	_, err := Read([]RawEntry{
		{Key: "medusa:stage", Tokens: []string{"0"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKey))
}

func TestRead_DuplicateStageErrors(t *testing.T) {
	_, err := Read([]RawEntry{
		{Key: "medusa:stage", Tokens: []string{"0"}},
		{Key: "medusa:stage", Tokens: []string{"1"}},
		{Key: "medusa:deps", Tokens: []string{"one"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyKeys))
}

func TestForClauseTokens(t *testing.T) {
	targets, source, err := ForClauseTokens(RawEntry{Tokens: []string{"$DEP", "$SLEEP_TIME", "IN", "&{RUNS}"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"$DEP", "$SLEEP_TIME"}, targets)
	assert.Equal(t, []string{"&{RUNS}"}, source)
}

func TestForClauseTokens_MissingInErrors(t *testing.T) {
	_, _, err := ForClauseTokens(RawEntry{Tokens: []string{"$DEP", "@{LIST}"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestTimeoutTokens(t *testing.T) {
	parts, err := TimeoutTokens(RawEntry{Tokens: []string{"2, 5 ,3"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "5", "3"}, parts)
}

func TestTimeoutTokens_WrongArityErrors(t *testing.T) {
	_, err := TimeoutTokens(RawEntry{Tokens: []string{"2,5"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}
