package trie

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"watchvault/storage"
)

func TestTrieCommitFlushPersistsData(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDB(dir)
	require.NoError(t, err)

	tr, err := NewTrie(db1, nil)
	require.NoError(t, err)

	key := crypto.Keccak256Hash([]byte("key"))
	value := []byte("value")

	require.NoError(t, tr.Update(key.Bytes(), value))
	root, err := tr.Commit(common.Hash{}, 0)
	require.NoError(t, err)

	db1.Close()

	db2, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	restored, err := NewTrie(db2, root.Bytes())
	require.NoError(t, err)

	got, err := restored.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestTrieCopyIsolatesMutations(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)

	key := crypto.Keccak256Hash([]byte("reserve"))
	require.NoError(t, tr.Update(key.Bytes(), []byte("100")))

	copied, err := tr.Copy()
	require.NoError(t, err)
	require.NoError(t, copied.Update(key.Bytes(), []byte("200")))

	original, err := tr.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte("100"), original)

	mutated, err := copied.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte("200"), mutated)
}
