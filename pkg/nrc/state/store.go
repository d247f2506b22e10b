// Package state persists the history of compile invocations in a badger
// database under the user's data directory.
package state

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record doesn't exist.
	ErrNotFound = errors.New("history record not found")

	// ErrVersion is returned for records written by an incompatible version.
	ErrVersion = errors.New("history record version mismatch")
)

// Store wraps Badger for history operations.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a store at the given path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores rec, filling in ID and Time when they are empty.
func (s *Store) Put(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	value, err := rec.Encode()
	if err != nil {
		return err
	}
	key := recordKey(rec.Time, rec.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(idKey(rec.ID), key)
	})
}

// Get retrieves a record by ID.
func (s *Store) Get(id string) (*Record, error) {
	var rec Record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err = txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(rec.Decode)
	})

	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns up to limit records, newest first, for which keep returns
// true. A limit of zero or less means no limit; a nil keep accepts all.
func (s *Store) List(limit int, keep func(*Record) bool) ([]Record, error) {
	var out []Record
	prefix := []byte(recordPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts from the last key <= seek.
		seek := append(append([]byte(nil), prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			if err := it.Item().Value(rec.Decode); err != nil {
				if errors.Is(err, ErrVersion) {
					continue
				}
				return err
			}
			if keep != nil && !keep(&rec) {
				continue
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBefore removes records older than cutoff and returns how many were
// removed.
func (s *Store) DeleteBefore(cutoff time.Time) (int, error) {
	removed := 0
	prefix := []byte(recordPrefix)

	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if !keyTime(key).Before(cutoff) {
				break
			}
			id := string(key[len(recordPrefix)+8:])
			if err := txn.Delete(key); err != nil {
				return err
			}
			if err := txn.Delete(idKey(id)); err != nil {
				return err
			}
			removed++
		}
		return nil
	})

	return removed, err
}

// DeleteAll removes every record.
func (s *Store) DeleteAll() error {
	return s.db.DropAll()
}
