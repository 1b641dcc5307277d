// Package export writes the buffers of a decoded forest to named artifacts.
package export

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/javanhut/treestream/internal/treestream"
)

// Sink receives one artifact per exported node.
type Sink interface {
	Put(name string, data []byte) error
}

// StreamSink is a Sink that can copy an artifact from its source
// without materializing it first.
type StreamSink interface {
	Sink
	PutFrom(name string, src io.WriterTo) error
}

// ArtifactName returns prefix followed by id as zero padded decimal,
// at least four digits wide.
func ArtifactName(prefix string, id uint32) string {
	return fmt.Sprintf("%s%04d", prefix, id)
}

// ExportError reports which node's artifact could not be written.
type ExportError struct {
	ID   uint32
	Name string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export node %d to %s: %v", e.ID, e.Name, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Result summarizes an export run.
type Result struct {
	Artifacts int
	Bytes     int64
}

// Forest writes every non-root node of f to sink in ascending id order.
// It stops at the first failing node.
func Forest(f *treestream.Forest, prefix string, sink Sink) (Result, error) {
	var res Result
	for _, id := range f.IDs() {
		if id == treestream.RootID {
			continue
		}
		name := ArtifactName(prefix, id)
		buf, _ := f.Buffer(id)

		var err error
		if ss, ok := sink.(StreamSink); ok {
			err = ss.PutFrom(name, buf)
		} else {
			err = sink.Put(name, buf.Bytes())
		}
		if err != nil {
			return res, &ExportError{ID: id, Name: name, Err: err}
		}
		log.Printf("exported node %d (%d bytes) to %s", id, buf.Len(), name)
		res.Artifacts++
		res.Bytes += int64(buf.Len())
	}
	return res, nil
}

// DirSink writes artifacts as files. Names are file system paths.
type DirSink struct {
	// MakeDirs creates missing parent directories of each artifact.
	MakeDirs bool
}

var _ StreamSink = DirSink{}

// Put implements Sink.
func (d DirSink) Put(name string, data []byte) error {
	return d.PutFrom(name, bytes.NewReader(data))
}

// PutFrom implements StreamSink.
func (d DirSink) PutFrom(name string, src io.WriterTo) error {
	if d.MakeDirs {
		if dir := filepath.Dir(name); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
	}

	// Write to temporary file first, then rename
	tmpPath := name + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	_, err = src.WriteTo(file)
	closeErr := file.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, name); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// MemorySink collects artifacts in memory.
type MemorySink struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{items: make(map[string][]byte)}
}

// Put implements Sink.
func (m *MemorySink) Put(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	m.items[name] = dataCopy
	return nil
}

// Get returns the artifact stored under name.
func (m *MemorySink) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.items[name]
	return data, ok
}

// Len returns the number of stored artifacts.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
