package memorydb

import (
	"errors"
	"sort"
	"sync"

	"github.com/wormholelabs-xyz/swap-layer/keyvaluedb"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

type (
	EncodeFn func(v any) ([]byte, error)
	DecodeFn func(data []byte, v any) error

	// MemoryDB is an in-memory KeyValueDB for tests and ephemeral nodes.
	MemoryDB struct {
		db      map[string][]byte
		encoder EncodeFn
		decoder DecodeFn
		limit   int
		lock    sync.RWMutex
	}
)

var errWriteLimit = errors.New("db write limit reached")

func New() *MemoryDB {
	return &MemoryDB{
		db:      make(map[string][]byte),
		encoder: types.Cbor.Marshal,
		decoder: types.Cbor.Unmarshal,
	}
}

// NewWithLimiter can be used to test disk full scenarios
func NewWithLimiter(limit int) *MemoryDB {
	db := New()
	db.limit = limit
	return db
}

func (db *MemoryDB) Read(key []byte, value any) (bool, error) {
	if err := keyvaluedb.CheckKeyAndValue(key, value); err != nil {
		return false, err
	}
	db.lock.RLock()
	defer db.lock.RUnlock()
	if data, ok := db.db[string(key)]; ok {
		return true, db.decoder(data, value)
	}
	return false, nil
}

func (db *MemoryDB) Write(key []byte, value any) error {
	if err := keyvaluedb.CheckKeyAndValue(key, value); err != nil {
		return err
	}
	b, err := db.encoder(value)
	if err != nil {
		return err
	}
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.limit > 0 && len(db.db) >= db.limit {
		if _, ok := db.db[string(key)]; !ok {
			return errWriteLimit
		}
	}
	db.db[string(key)] = b
	return nil
}

func (db *MemoryDB) Delete(key []byte) error {
	if err := keyvaluedb.CheckKey(key); err != nil {
		return err
	}
	db.lock.Lock()
	defer db.lock.Unlock()
	delete(db.db, string(key))
	return nil
}

func (db *MemoryDB) First() keyvaluedb.Iterator {
	return db.newIterator("")
}

func (db *MemoryDB) Find(key []byte) keyvaluedb.Iterator {
	return db.newIterator(string(key))
}

// newIterator snapshots the sorted keys under the read lock; iteration then
// runs over the snapshot.
func (db *MemoryDB) newIterator(from string) *iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()
	keys := make([]string, 0, len(db.db))
	for k := range db.db {
		if k >= from {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = db.db[k]
	}
	return &iterator{keys: keys, values: values, decoder: db.decoder}
}

type iterator struct {
	keys    []string
	values  [][]byte
	pos     int
	decoder DecodeFn
}

func (it *iterator) Next() { it.pos++ }

func (it *iterator) Valid() bool {
	return it.pos < len(it.keys)
}

func (it *iterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return []byte(it.keys[it.pos])
}

func (it *iterator) Value(value any) error {
	if !it.Valid() {
		return errors.New("iterator is not valid")
	}
	return it.decoder(it.values[it.pos], value)
}

func (it *iterator) Close() error {
	it.pos = len(it.keys)
	return nil
}
