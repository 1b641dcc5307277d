package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/javanhut/treestream/internal/cas"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "forest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetArtifact(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put("o0001", []byte("ABC")))
	require.NoError(t, db.Put("o0002", []byte("ABD")))

	data, err := db.Get("o0001")
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(data))

	entries, err := db.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "o0001", entries[0].Name)
	assert.Equal(t, cas.SumB3([]byte("ABC")), entries[0].Hash)
	assert.Equal(t, "o0002", entries[1].Name)
}

func TestIdenticalContentStoredOnce(t *testing.T) {
	db := openTestDB(t)

	for _, name := range []string{"p0001", "p0002", "p0003"} {
		require.NoError(t, db.Put(name, []byte("same path output")))
	}
	require.NoError(t, db.Put("p0004", []byte("different")))

	n, err := db.BlobCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGetMissing(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Get("nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = db.GetMeta(MetaSource)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCorruptBlobDetected(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Put("o0001", []byte("ABC")))

	// Point the artifact at a blob holding other content.
	other := []byte("XYZ")
	require.NoError(t, db.Blobs().Put(cas.SumB3(other), other))
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		good := tx.Bucket(BucketBlobs).Get([]byte(cas.SumB3(other).String()))
		return tx.Bucket(BucketBlobs).Put([]byte(cas.SumB3([]byte("ABC")).String()), append([]byte{}, good...))
	}))

	_, err := db.Get("o0001")
	assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
}

func TestBlobStore(t *testing.T) {
	db := openTestDB(t)
	blobs := db.Blobs()

	data := []byte("test data")
	hash := cas.SumB3(data)

	has, err := blobs.Has(hash)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = blobs.Get(hash)
	assert.Error(t, err)

	require.NoError(t, blobs.Put(hash, data))

	has, err = blobs.Has(hash)
	require.NoError(t, err)
	assert.True(t, has)

	got, err := blobs.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	assert.Error(t, blobs.Put(cas.SumB3([]byte("different data")), data), "mismatched hash must be rejected")
}

func TestStampAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forest.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Put("o0001", []byte("ABC")))
	require.NoError(t, db.Stamp("run.stream", "little", 1))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	src, err := db.GetMeta(MetaSource)
	require.NoError(t, err)
	assert.Equal(t, "run.stream", src)

	count, err := db.GetMeta(MetaArtifacts)
	require.NoError(t, err)
	assert.Equal(t, "1", count)

	data, err := db.Get("o0001")
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(data))
}

func TestLookupThenBlobs(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Put("o0001", []byte("ABC")))

	hash, err := db.Lookup("o0001")
	require.NoError(t, err)
	assert.Equal(t, cas.SumB3([]byte("ABC")), hash)

	data, err := db.Blobs().Get(hash)
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(data))

	_, err = db.Lookup("o0002")
	assert.True(t, errors.Is(err, ErrNotFound))
}
