package treestream

import (
	"errors"
	"fmt"
)

// Framing errors
var (
	// ErrFraming is the class of all errors caused by a malformed stream layout.
	ErrFraming = errors.New("framing error")

	// ErrShortHeader indicates fewer than 8 bytes remain where a record header is expected.
	ErrShortHeader = fmt.Errorf("%w: truncated record header", ErrFraming)

	// ErrShortPayload indicates an append record declares more payload than remains.
	ErrShortPayload = fmt.Errorf("%w: payload runs past end of stream", ErrFraming)

	// ErrTrailingData indicates bytes remain after the last complete record.
	ErrTrailingData = fmt.Errorf("%w: trailing data after last record", ErrFraming)
)

// Fork errors
var (
	// ErrUnknownSource indicates a fork names a source id that does not exist yet.
	ErrUnknownSource = errors.New("fork from unknown source id")

	// ErrChildExists indicates a fork targets an id that already exists
	// while the decoder rejects overwrites.
	ErrChildExists = errors.New("fork target id already exists")
)

// Encoder errors
var (
	// ErrIDRange indicates a fork child id does not fit in 31 bits.
	ErrIDRange = errors.New("fork child id exceeds 31 bits")

	// ErrPayloadTooLarge indicates an append payload length does not fit in 31 bits.
	ErrPayloadTooLarge = errors.New("append payload exceeds 31-bit length")
)

// DecodeError reports where in a stream decoding stopped and why.
type DecodeError struct {
	Offset int    // byte offset of the record that failed
	Detail string // human readable specifics, may be empty
	Err    error  // one of the sentinel errors above
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("treestream: offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("treestream: offset %d: %v (%s)", e.Offset, e.Err, e.Detail)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(offset int, err error, format string, args ...any) *DecodeError {
	return &DecodeError{Offset: offset, Err: err, Detail: fmt.Sprintf(format, args...)}
}
