package keyvaluedb

import "fmt"

// Reader interface for DB
type Reader interface {
	// Read reads the value for key stored in the DB, returns false if the
	// key is not present.
	Read(key []byte, value any) (bool, error)
}

// Writer interface for DB
type Writer interface {
	// Write inserts the given value into the DB.
	Write(key []byte, value any) error
	// Delete removes the key from the key-value data store.
	Delete(key []byte) error
}

// KeyValueDB is the persistence interface of the node: snapshots, executed
// transaction records and ingest deduplication all go through it.
type KeyValueDB interface {
	Reader
	Writer
	Iterable
}

type Iterator interface {
	// Next moves the iterator to the next key value pair
	Next()
	// Valid returns false when the iterator has moved past the end
	Valid() bool
	// Key returns the key of the current key/value pair, or nil if not valid.
	Key() []byte
	// Value decodes the value of the current key/value pair.
	Value(value any) error
	// Close releases associated resources, may be called multiple times.
	Close() error
}

// Iterable wraps the iterator constructors of a backing data store.
type Iterable interface {
	// First creates a binary-alphabetical forward iterator starting with the
	// first item. NB! the iterator MUST be released with Close() or the next
	// DB operation will deadlock.
	First() Iterator
	// Find returns a forward iterator positioned at the closest
	// binary-alphabetical match.
	Find(key []byte) Iterator
}

// IsEmpty returns true if the key value DB is empty
func IsEmpty(db KeyValueDB) (empty bool, err error) {
	if db == nil {
		return true, fmt.Errorf("db is nil")
	}
	it := db.First()
	defer func() { err = it.Close() }()
	return !it.Valid(), err
}
