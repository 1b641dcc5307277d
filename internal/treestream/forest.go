package treestream

import (
	"sort"

	"github.com/javanhut/treestream/internal/cas"
)

// RootID is the id of the implicit root node present in every forest.
const RootID uint32 = 0

// Forest maps node ids to their reconstructed buffers.
// Ids are never removed once created.
type Forest struct {
	nodes map[uint32]Buffer
}

// NewForest returns a forest holding only the empty root node.
func NewForest() *Forest {
	return &Forest{nodes: map[uint32]Buffer{RootID: {}}}
}

// Append extends the buffer of id with p, creating id empty if needed.
// The forest keeps a reference to p; callers must not modify it afterwards.
func (f *Forest) Append(id uint32, p []byte) {
	f.nodes[id] = f.nodes[id].appendBytes(p)
}

// Fork makes child hold a snapshot of source's current buffer.
// It reports whether child existed before and was overwritten.
func (f *Forest) Fork(source, child uint32) (overwritten bool, err error) {
	b, ok := f.nodes[source]
	if !ok {
		return false, ErrUnknownSource
	}
	_, overwritten = f.nodes[child]
	b = b.share()
	f.nodes[source] = b
	f.nodes[child] = b
	return overwritten, nil
}

// Has reports whether id exists.
func (f *Forest) Has(id uint32) bool {
	_, ok := f.nodes[id]
	return ok
}

// Buffer returns the current buffer of id.
func (f *Forest) Buffer(id uint32) (Buffer, bool) {
	b, ok := f.nodes[id]
	return b, ok
}

// Bytes returns a copy of the current contents of id.
func (f *Forest) Bytes(id uint32) ([]byte, bool) {
	b, ok := f.nodes[id]
	if !ok {
		return nil, false
	}
	return b.Bytes(), true
}

// Len returns the number of nodes, including the root.
func (f *Forest) Len() int { return len(f.nodes) }

// IDs returns all node ids in ascending order.
func (f *Forest) IDs() []uint32 {
	ids := make([]uint32, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Size returns the sum of all node buffer lengths, as if every buffer
// were materialized separately.
func (f *Forest) Size() int64 {
	var n int64
	for _, b := range f.nodes {
		n += int64(b.Len())
	}
	return n
}

// Digest returns the BLAKE3 hash of the contents of id.
func (f *Forest) Digest(id uint32) (cas.Hash, bool) {
	b, ok := f.nodes[id]
	if !ok {
		return cas.Hash{}, false
	}
	return cas.SumB3Chunks(b.Chunks()), true
}
