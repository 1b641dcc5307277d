package treestream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Encoder writes tree stream records.
type Encoder struct {
	w     io.Writer
	order binary.ByteOrder
	hdr   [headerSize]byte
	n     int64
}

// NewEncoder returns an encoder writing to w. A nil order means little-endian.
func NewEncoder(w io.Writer, order binary.ByteOrder) *Encoder {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Encoder{w: w, order: order}
}

// Append writes an append record for id.
func (e *Encoder) Append(id uint32, payload []byte) error {
	if uint64(len(payload)) > uint64(maxTag) {
		return fmt.Errorf("append to %d: %w", id, ErrPayloadTooLarge)
	}
	if err := e.header(id, uint32(len(payload))); err != nil {
		return err
	}
	n, err := e.w.Write(payload)
	e.n += int64(n)
	if err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// Fork writes a fork record making child a snapshot of source.
func (e *Encoder) Fork(source, child uint32) error {
	if child > maxTag {
		return fmt.Errorf("fork %d -> %d: %w", source, child, ErrIDRange)
	}
	return e.header(source, child|forkFlag)
}

// Written returns the number of bytes written so far.
func (e *Encoder) Written() int64 { return e.n }

func (e *Encoder) header(id, tag uint32) error {
	e.order.PutUint32(e.hdr[0:4], id)
	e.order.PutUint32(e.hdr[4:8], tag)
	n, err := e.w.Write(e.hdr[:])
	e.n += int64(n)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}
