// Package store persists exported forests in a bbolt database.
//
// Artifacts map to BLAKE3 hashes of their contents; each distinct content
// is stored once, zstd compressed. Sibling paths that end with identical
// buffers therefore cost a single blob.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"github.com/javanhut/treestream/internal/cas"
	"github.com/javanhut/treestream/internal/pack"
)

// Buckets
var (
	BucketArtifacts = []byte("artifacts") // artifact name -> blake3 hex
	BucketBlobs     = []byte("blobs")     // blake3 hex -> zstd(content)
	BucketMeta      = []byte("meta")      // archive metadata
)

// Meta keys
const (
	MetaSource    = "source"     // stream the archive was built from
	MetaByteOrder = "byte-order" // byte order used to decode it
	MetaCreated   = "created"    // RFC 3339 creation time
	MetaArtifacts = "artifacts"  // number of artifacts exported
)

var (
	// ErrNotFound indicates a missing artifact or blob.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt indicates stored content does not match its hash.
	ErrCorrupt = errors.New("corrupted blob")
)

// Entry describes one archived artifact.
type Entry struct {
	Name string
	Hash cas.Hash
}

type DB struct{ *bbolt.DB }

func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	// Ensure buckets exist
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{BucketArtifacts, BucketBlobs, BucketMeta} {
			if _, e := tx.CreateBucketIfNotExists(name); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

// Put stores an artifact. It satisfies export.Sink.
func (db *DB) Put(name string, data []byte) error {
	hash := cas.SumB3(data)

	blobs := db.Blobs()
	has, err := blobs.Has(hash)
	if err != nil {
		return err
	}
	if !has {
		if err := blobs.Put(hash, data); err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
	}

	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketArtifacts).Put([]byte(name), []byte(hash.String()))
	})
}

// Lookup returns the content hash recorded for an artifact.
func (db *DB) Lookup(name string) (cas.Hash, error) {
	var hash cas.Hash
	err := db.View(func(tx *bbolt.Tx) error {
		hexHash := tx.Bucket(BucketArtifacts).Get([]byte(name))
		if hexHash == nil {
			return fmt.Errorf("artifact %s: %w", name, ErrNotFound)
		}
		var err error
		hash, err = cas.ParseHash(string(hexHash))
		return err
	})
	return hash, err
}

// Get returns the contents of an artifact.
func (db *DB) Get(name string) ([]byte, error) {
	hash, err := db.Lookup(name)
	if err != nil {
		return nil, err
	}
	return db.Blobs().Get(hash)
}

// List returns all artifacts sorted by name.
func (db *DB) List() ([]Entry, error) {
	var entries []Entry
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketArtifacts).ForEach(func(k, v []byte) error {
			hash, err := cas.ParseHash(string(v))
			if err != nil {
				return fmt.Errorf("artifact %s: %w", k, err)
			}
			entries = append(entries, Entry{Name: string(k), Hash: hash})
			return nil
		})
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, err
}

// BlobCount returns the number of distinct contents stored.
func (db *DB) BlobCount() (int, error) {
	var n int
	err := db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(BucketBlobs).Stats().KeyN
		return nil
	})
	return n, err
}

// Blobs exposes the content store of the archive, keyed by BLAKE3 hash.
func (db *DB) Blobs() cas.CAS { return blobStore{db} }

type blobStore struct{ db *DB }

// Put implements cas.CAS.
func (s blobStore) Put(hash cas.Hash, data []byte) error {
	if computed := cas.SumB3(data); computed != hash {
		return fmt.Errorf("hash mismatch: expected %s, got %s", hash, computed)
	}
	packed, err := pack.Compress(data)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketBlobs).Put([]byte(hash.String()), packed)
	})
}

// Get implements cas.CAS.
func (s blobStore) Get(hash cas.Hash) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		data, err = loadBlob(tx, hash)
		return err
	})
	return data, err
}

// Has implements cas.CAS.
func (s blobStore) Has(hash cas.Hash) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(BucketBlobs).Get([]byte(hash.String())) != nil
		return nil
	})
	return ok, err
}

// PutMeta stores an archive metadata value.
func (db *DB) PutMeta(key, value string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketMeta).Put([]byte(key), []byte(value))
	})
}

// GetMeta retrieves an archive metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketMeta).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("meta %s: %w", key, ErrNotFound)
		}
		value = string(v)
		return nil
	})
	return value, err
}

// Stamp records where the archive came from.
func (db *DB) Stamp(source, byteOrder string, count int) error {
	for _, kv := range [][2]string{
		{MetaSource, source},
		{MetaByteOrder, byteOrder},
		{MetaCreated, time.Now().UTC().Format(time.RFC3339)},
		{MetaArtifacts, strconv.Itoa(count)},
	} {
		if err := db.PutMeta(kv[0], kv[1]); err != nil {
			return fmt.Errorf("meta %s: %w", kv[0], err)
		}
	}
	return nil
}

func loadBlob(tx *bbolt.Tx, hash cas.Hash) ([]byte, error) {
	packed := tx.Bucket(BucketBlobs).Get([]byte(hash.String()))
	if packed == nil {
		return nil, fmt.Errorf("blob %s: %w", hash, ErrNotFound)
	}
	data, err := pack.Decompress(packed)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", hash, err)
	}
	if cas.SumB3(data) != hash {
		return nil, fmt.Errorf("blob %s: %w", hash, ErrCorrupt)
	}
	return data, nil
}
