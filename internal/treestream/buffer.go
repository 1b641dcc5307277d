package treestream

import (
	"io"
)

// segment is one link of a persistent chain of appended bytes.
// base is the number of bytes held by all preceding segments.
type segment struct {
	prev   *segment
	base   int
	data   []byte
	shared bool
}

// Buffer is an immutable byte string. Copying a Buffer is O(1) and the
// copies share storage; appending through a Forest never changes bytes
// visible through another Buffer value.
type Buffer struct {
	tail *segment
	n    int
}

// Len returns the number of bytes in the buffer.
func (b Buffer) Len() int { return b.n }

// appendBytes returns b followed by p. When b owns the end of an unshared
// tail segment the segment is extended in place, otherwise a new segment is
// linked so the previous value stays intact.
func (b Buffer) appendBytes(p []byte) Buffer {
	if len(p) == 0 {
		return b
	}
	t := b.tail
	if t != nil && !t.shared && t.base+len(t.data) == b.n {
		t.data = append(t.data, p...)
		return Buffer{tail: t, n: b.n + len(p)}
	}
	// Clip capacity so a later in-place append reallocates instead of
	// writing into the caller's backing array.
	seg := &segment{prev: t, base: b.n, data: p[:len(p):len(p)]}
	return Buffer{tail: seg, n: b.n + len(p)}
}

// share marks the tail segment as referenced by more than one node.
func (b Buffer) share() Buffer {
	if b.tail != nil {
		b.tail.shared = true
	}
	return b
}

// Chunks returns the buffer contents as an ordered list of slices.
// The slices alias internal storage and must not be modified.
func (b Buffer) Chunks() [][]byte {
	var chunks [][]byte
	end := b.n
	for s := b.tail; s != nil && end > 0; s = s.prev {
		if end > s.base {
			chunks = append(chunks, s.data[:end-s.base])
		}
		end = s.base
	}
	for i, j := 0, len(chunks)-1; i < j; i, j = i+1, j-1 {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	}
	return chunks
}

// Bytes returns a fresh copy of the buffer contents.
func (b Buffer) Bytes() []byte {
	out := make([]byte, b.n)
	end := b.n
	for s := b.tail; s != nil && end > 0; s = s.prev {
		if end > s.base {
			copy(out[s.base:end], s.data[:end-s.base])
		}
		end = s.base
	}
	return out
}

// WriteTo writes the buffer contents to w.
func (b Buffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range b.Chunks() {
		n, err := w.Write(c)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the contents as a string.
func (b Buffer) String() string { return string(b.Bytes()) }
