package engine

import (
	"fmt"
	"os"
	"sync"
)

type fileHandle struct {
	mu   sync.Mutex
	file *os.File
}

// FileWriter hands out positional writes into destination files. Each
// download worker owns a disjoint byte range, so writes never contend on
// data; the per-handle lock only guards the descriptor bookkeeping.
type FileWriter struct {
	mu      sync.RWMutex
	handles map[string]*fileHandle
}

func NewFileWriter() *FileWriter {
	return &FileWriter{
		handles: make(map[string]*fileHandle),
	}
}

// WriteAt writes data at offset into the file at path, opening it on first
// use.
func (fw *FileWriter) WriteAt(path string, data []byte, offset int64) error {
	h, err := fw.getOrCreate(path)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err = h.file.WriteAt(data, offset)
	return err
}

// PreAllocate reserves the final size up front. Truncate produces a sparse
// file on most filesystems, so this is metadata-only.
func (fw *FileWriter) PreAllocate(path string, size int64) error {
	h, err := fw.getOrCreate(path)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.file.Truncate(size)
}

func (fw *FileWriter) getOrCreate(path string) (*fileHandle, error) {
	fw.mu.RLock()
	h, ok := fw.handles[path]
	fw.mu.RUnlock()
	if ok {
		return h, nil
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if h, ok = fw.handles[path]; ok {
		return h, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open destination file: %w", err)
	}

	h = &fileHandle{file: f}
	fw.handles[path] = h

	return h, nil
}

// Close syncs and closes the handle for path. Closing an unknown path is a
// no-op.
func (fw *FileWriter) Close(path string) error {
	fw.mu.Lock()
	h, ok := fw.handles[path]
	if ok {
		delete(fw.handles, path)
	}
	fw.mu.Unlock()

	if !ok {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.file.Sync()
	return h.file.Close()
}

// Discard closes the handle and deletes the file, for cancelled or failed
// downloads. Never leaves a partial artifact behind.
func (fw *FileWriter) Discard(path string) {
	_ = fw.Close(path)
	_ = os.Remove(path)
}

func (fw *FileWriter) CloseAll() {
	fw.mu.RLock()
	paths := make([]string, 0, len(fw.handles))
	for path := range fw.handles {
		paths = append(paths, path)
	}
	fw.mu.RUnlock()

	for _, path := range paths {
		_ = fw.Close(path)
	}
}
