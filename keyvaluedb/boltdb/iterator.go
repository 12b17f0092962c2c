package boltdb

import (
	bolt "go.etcd.io/bbolt"
)

// iterator keeps a read transaction open for its whole lifetime, it must be
// released with Close or writers will block.
type iterator struct {
	tx      *bolt.Tx
	cursor  *bolt.Cursor
	key     []byte
	value   []byte
	decoder DecodeFn
}

func newIterator(db *bolt.DB, bucket []byte, decoder DecodeFn) *iterator {
	if db == nil {
		return &iterator{decoder: decoder}
	}
	tx, err := db.Begin(false)
	if err != nil {
		return &iterator{decoder: decoder}
	}
	b := tx.Bucket(bucket)
	if b == nil {
		_ = tx.Rollback()
		return &iterator{decoder: decoder}
	}
	return &iterator{tx: tx, cursor: b.Cursor(), decoder: decoder}
}

func (it *iterator) first() {
	if it.cursor == nil {
		return
	}
	it.key, it.value = it.cursor.First()
}

func (it *iterator) seek(key []byte) {
	if it.cursor == nil {
		return
	}
	it.key, it.value = it.cursor.Seek(key)
}

func (it *iterator) Next() {
	if it.cursor == nil {
		return
	}
	it.key, it.value = it.cursor.Next()
}

func (it *iterator) Valid() bool {
	return it.key != nil
}

func (it *iterator) Key() []byte {
	return it.key
}

func (it *iterator) Value(value any) error {
	return it.decoder(it.value, value)
}

func (it *iterator) Close() error {
	if it.tx == nil {
		return nil
	}
	tx := it.tx
	it.tx, it.cursor, it.key, it.value = nil, nil, nil, nil
	return tx.Rollback()
}
