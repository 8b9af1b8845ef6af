// Package pkgindex persists which external packages have already been
// materialized on disk, so a later run can reuse a copy instead of fetching
// it again. The index lives in a single bolt database file.
package pkgindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/vk/gridflow/internal/pkgcache"
)

var bucketPackages = []byte("packages")

// Entry records one materialized package.
type Entry struct {
	Source      string    `json:"source"`
	Revision    string    `json:"revision"`
	Location    string    `json:"location"`
	Fingerprint string    `json:"fingerprint"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Key returns the cache key the entry was recorded under.
func (e Entry) Key() pkgcache.Key {
	return pkgcache.Key{Source: e.Source, Revision: e.Revision}
}

// Index is a bolt-backed package index. It is safe for concurrent use.
type Index struct {
	db *bolt.DB
}

// Open opens (possibly creating) the index at path.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening package index %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPackages); err != nil {
			return fmt.Errorf("create packages bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func dbKey(k pkgcache.Key) []byte {
	return []byte(k.Source + "\x00" + k.Revision)
}

// Get returns the entry recorded for k.
func (ix *Index) Get(k pkgcache.Key) (Entry, bool, error) {
	var (
		e     Entry
		found bool
	)
	err := ix.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPackages).Get(dbKey(k))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading package index entry %s: %w", k, err)
	}
	return e, found, nil
}

// Put records e, replacing any previous entry for the same key.
func (ix *Index) Put(e Entry) error {
	if e.Source == "" {
		return errors.New("package index entry has no source")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return ix.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPackages).Put(dbKey(e.Key()), data)
	})
}

// Delete forgets k. Deleting a missing key is not an error.
func (ix *Index) Delete(k pkgcache.Key) error {
	return ix.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPackages).Delete(dbKey(k))
	})
}

// Close releases the database file lock.
func (ix *Index) Close() error {
	return ix.db.Close()
}
