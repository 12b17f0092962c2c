package boltdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/swap-layer/keyvaluedb"
)

func initBoltDB(t *testing.T) *BoltDB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func TestBoltDB_ReadWriteDelete(t *testing.T) {
	db := initBoltDB(t)
	empty, err := keyvaluedb.IsEmpty(db)
	require.NoError(t, err)
	require.True(t, empty)

	type record struct {
		_     struct{} `cbor:",toarray"`
		Round uint64
		Note  string
	}
	require.NoError(t, db.Write([]byte("r"), &record{Round: 7, Note: "snap"}))

	var got record
	found, err := db.Read([]byte("r"), &got)
	require.NoError(t, err)
	require.True(t, found)
	require.EqualValues(t, 7, got.Round)
	require.Equal(t, "snap", got.Note)

	found, err = db.Read([]byte("missing"), &got)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, db.Delete([]byte("r")))
	found, err = db.Read([]byte("r"), &got)
	require.NoError(t, err)
	require.False(t, found)
}

func TestBoltDB_InvalidInput(t *testing.T) {
	db := initBoltDB(t)
	require.ErrorIs(t, db.Write(nil, "value"), keyvaluedb.ErrEmptyKey)
	require.ErrorIs(t, db.Write([]byte("key"), nil), keyvaluedb.ErrNilValue)
	require.ErrorIs(t, db.Delete(nil), keyvaluedb.ErrEmptyKey)
}

func TestBoltDB_Iterator(t *testing.T) {
	db := initBoltDB(t)
	for _, key := range []string{"3", "1", "4", "2"} {
		require.NoError(t, db.Write([]byte(key), "v"+key))
	}

	it := db.First()
	var keys []string
	for ; it.Valid(); it.Next() {
		var value string
		require.NoError(t, it.Value(&value))
		require.Equal(t, "v"+string(it.Key()), value)
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Close())
	require.Equal(t, []string{"1", "2", "3", "4"}, keys)

	found := db.Find([]byte("25"))
	require.True(t, found.Valid())
	require.Equal(t, []byte("3"), found.Key())
	require.NoError(t, found.Close())
	// closing twice is fine
	require.NoError(t, found.Close())
}
