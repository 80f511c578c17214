package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FileStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	store := &FileStore{Path: filepath.Join(t.TempDir(), "token")}

	// Absent slot loads as empty, and clearing it is a no-op.
	tok, err := store.Load()
	require.NoError(err)
	assert.Empty(tok)
	require.NoError(store.Clear())

	require.NoError(store.Save("abc"))
	tok, err = store.Load()
	require.NoError(err)
	assert.Equal("abc", tok)

	// Save overwrites, holding exactly one token.
	require.NoError(store.Save("def"))
	tok, err = store.Load()
	require.NoError(err)
	assert.Equal("def", tok)

	require.NoError(store.Clear())
	tok, err = store.Load()
	require.NoError(err)
	assert.Empty(tok)
}
