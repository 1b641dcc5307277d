// Package treestream decodes and encodes tree streams: a flat log of
// append and fork records that rebuilds a forest of per-path byte buffers.
//
// Wire format, repeated until the end of the blob:
//
//	id  uint32
//	tag uint32
//	if tag&0x80000000 != 0: fork, child = tag&0x7fffffff, no payload
//	else:                   append, tag bytes of payload follow
//
// Integers use a configurable byte order, little-endian by default.
// Producers that wrote the stream on a big-endian host must be decoded
// with binary.BigEndian; nothing in the stream records the order.
package treestream

import (
	"encoding/binary"
	"errors"
)

const (
	headerSize = 8
	forkFlag   = uint32(1) << 31
	maxTag     = forkFlag - 1
)

// ForkPolicy controls what happens when a fork targets an existing id.
type ForkPolicy int

const (
	// ForkOverwrite replaces the existing child buffer with the snapshot.
	ForkOverwrite ForkPolicy = iota
	// ForkReject fails the decode with ErrChildExists.
	ForkReject
)

// RecordKind distinguishes append and fork records.
type RecordKind uint8

const (
	KindAppend RecordKind = iota + 1
	KindFork
)

func (k RecordKind) String() string {
	switch k {
	case KindAppend:
		return "append"
	case KindFork:
		return "fork"
	default:
		return "unknown"
	}
}

// Record is one decoded unit of a stream.
type Record struct {
	Offset  int        // offset of the record header
	Kind    RecordKind // append or fork
	ID      uint32     // append target, or fork source
	Child   uint32     // fork child, zero for appends
	Payload []byte     // append payload, aliases the input blob
}

// Options configures a Decoder.
type Options struct {
	ByteOrder  binary.ByteOrder
	ForkPolicy ForkPolicy

	// OnRecord, if set, is called for each record after it is applied.
	OnRecord func(Record)
}

// DefaultOptions returns little-endian decoding with overwrite-on-fork.
func DefaultOptions() Options {
	return Options{
		ByteOrder:  binary.LittleEndian,
		ForkPolicy: ForkOverwrite,
	}
}

// Decoder turns stream blobs into forests.
type Decoder struct {
	opts Options
}

// NewDecoder creates a decoder. A nil byte order means little-endian.
func NewDecoder(opts Options) *Decoder {
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}
	return &Decoder{opts: opts}
}

// Decode decodes blob with the default options.
func Decode(blob []byte) (*Forest, error) {
	return NewDecoder(DefaultOptions()).Decode(blob)
}

// Decode replays every record in blob and returns the resulting forest.
// On error no forest is returned. The returned forest references blob;
// callers must not modify blob while the forest is in use.
func (d *Decoder) Decode(blob []byte) (*Forest, error) {
	forest := NewForest()
	err := d.Records(blob, func(r Record) error {
		switch r.Kind {
		case KindFork:
			if d.opts.ForkPolicy == ForkReject && forest.Has(r.Child) {
				return decodeErr(r.Offset, ErrChildExists, "source %d, child %d", r.ID, r.Child)
			}
			if _, err := forest.Fork(r.ID, r.Child); err != nil {
				return decodeErr(r.Offset, err, "source %d, child %d", r.ID, r.Child)
			}
		case KindAppend:
			forest.Append(r.ID, r.Payload)
		}
		if d.opts.OnRecord != nil {
			d.opts.OnRecord(r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return forest, nil
}

// Records walks the framing of blob and calls fn for each record in order.
// It checks only the layout; fork sources are not validated. Iteration stops
// at the first error from fn, which is returned unchanged.
func (d *Decoder) Records(blob []byte, fn func(Record) error) error {
	order := d.opts.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}

	pos := 0
	for pos < len(blob) {
		start := pos
		if len(blob)-pos < headerSize {
			return decodeErr(start, ErrShortHeader, "need %d bytes, %d remain", headerSize, len(blob)-pos)
		}
		id := order.Uint32(blob[pos:])
		tag := order.Uint32(blob[pos+4:])
		pos += headerSize

		var r Record
		if tag&forkFlag != 0 {
			r = Record{Offset: start, Kind: KindFork, ID: id, Child: tag &^ forkFlag}
		} else {
			size := int(tag)
			if len(blob)-pos < size {
				return decodeErr(start, ErrShortPayload, "id %d declares %d bytes, %d remain", id, size, len(blob)-pos)
			}
			r = Record{Offset: start, Kind: KindAppend, ID: id, Payload: blob[pos : pos+size]}
			pos += size
		}

		if err := fn(r); err != nil {
			return err
		}
	}

	if pos != len(blob) {
		return decodeErr(pos, ErrTrailingData, "consumed %d of %d bytes", pos, len(blob))
	}
	return nil
}

// IsFraming reports whether err is a framing error.
func IsFraming(err error) bool {
	return errors.Is(err, ErrFraming)
}
