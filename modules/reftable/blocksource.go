// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"fmt"
	"io"
)

// BlockSource is the storage-agnostic random-access abstraction a reader is
// opened against (§6.5). In-memory, mmap'd file, S3, and GCS backends all
// satisfy it identically; C8/C9 never branch on which one is in use.
type BlockSource interface {
	ReadAt(p []byte, off int64) (int, error)
	Size() (int64, error)
	Close() error
}

// memorySource is the in-memory BlockSource variant (§4.2). It is used by
// the tests; the CLI commands open files through OpenFileSource.
type memorySource struct {
	data []byte
}

// NewMemorySource wraps data (not copied) as a BlockSource.
func NewMemorySource(data []byte) BlockSource {
	return &memorySource{data: data}
}

func (m *memorySource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, fmt.Errorf("reftable: read at %d out of range (size %d)", off, len(m.data))
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memorySource) Size() (int64, error) {
	return int64(len(m.data)), nil
}

func (m *memorySource) Close() error {
	return nil
}

// readBlockAt reads exactly n bytes at off from src, treating io.EOF on a
// full read as success (the final block of a section may butt against
// end-of-file without trailing padding beyond what the writer already
// wrote).
func readBlockAt(src BlockSource, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := src.ReadAt(buf, off)
	if err != nil && !(err == io.EOF && read == n) {
		return nil, fmt.Errorf("reftable: read block at offset %d: %w", off, err)
	}
	return buf, nil
}
