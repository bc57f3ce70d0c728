// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package reftable

import (
	"fmt"
	"os"
)

// fileSource on non-unix platforms falls back to plain pread-style access;
// mmap is a unix-only optimization here (see blocksource_file.go).
type fileSource struct {
	f    *os.File
	size int64
}

func OpenFileSource(path string) (BlockSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reftable: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reftable: stat %s: %w", path, err)
	}
	return &fileSource{f: f, size: info.Size()}, nil
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *fileSource) Size() (int64, error) {
	return s.size, nil
}

func (s *fileSource) Close() error {
	return s.f.Close()
}
