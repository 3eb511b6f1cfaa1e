package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndRecent(t *testing.T) {
	s := openTestStore(t, ":memory:")

	e, err := s.Add("+ 1 2", "3", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.Seq)
	assert.Equal(t, s.Session(), e.Session)
	assert.NotEmpty(t, e.ID)

	_, err = s.Add("/ 1 0", "Error: division by zero", true)
	require.NoError(t, err)
	_, err = s.Add("list 1", "{1}", false)
	require.NoError(t, err)

	entries, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/ 1 0", entries[0].Input)
	assert.True(t, entries[0].IsError)
	assert.Equal(t, "list 1", entries[1].Input)
	assert.Equal(t, "{1}", entries[1].Output)
	assert.False(t, entries[1].CreatedAt.IsZero())
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t, ":memory:")
	entries, err := s.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInputsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	a := openTestStore(t, path)
	b := openTestStore(t, path)
	assert.NotEqual(t, a.Session(), b.Session())

	_, err := a.Add("def {x} 1", "()", false)
	require.NoError(t, err)
	_, err = b.Add("x", "Error: unbound symbol: x", true)
	require.NoError(t, err)
	_, err = a.Add("+ x 1", "2", false)
	require.NoError(t, err)

	inputs, err := b.Inputs(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"def {x} 1", "x", "+ x 1"}, inputs)

	inputs, err = a.Inputs(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "+ x 1"}, inputs)

	all, err := b.Recent(10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, a.Session(), all[0].Session)
	assert.Equal(t, b.Session(), all[1].Session)
}

func TestInputsEmpty(t *testing.T) {
	s := openTestStore(t, ":memory:")
	inputs, err := s.Inputs(5)
	require.NoError(t, err)
	assert.Empty(t, inputs)
}

func TestClear(t *testing.T) {
	s := openTestStore(t, ":memory:")
	_, err := s.Add("1", "1", false)
	require.NoError(t, err)
	require.NoError(t, s.Clear())

	entries, err := s.Recent(5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
