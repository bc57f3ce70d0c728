// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package reftable

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// fileSource is the mmap'd file-backed BlockSource (§4.11). It maps the
// table read-only for its lifetime; ReadAt is then a bounds-checked slice
// copy out of the mapping rather than a syscall per block.
type fileSource struct {
	f       *os.File
	mapping []byte
	size    int64
}

// OpenFileSource mmaps path read-only. A zero-length file (S1's empty
// table has a non-zero size, but a freshly created placeholder may not)
// falls back to plain pread-style access via the *os.File, since mmap of a
// zero-length region is rejected by the kernel.
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
	src := &fileSource{f: f, size: info.Size()}
	if info.Size() == 0 {
		return src, nil
	}
	m, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		// Fall back to io.ReaderAt access; some platforms/filesystems
		// refuse mmap (e.g. certain network mounts).
		return src, nil
	}
	src.mapping = m
	return src, nil
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	if s.mapping != nil {
		if off < 0 || off > int64(len(s.mapping)) {
			return 0, fmt.Errorf("reftable: read at %d out of range (size %d)", off, len(s.mapping))
		}
		n := copy(p, s.mapping[off:])
		if n < len(p) {
			return n, io.EOF
		}
		return n, nil
	}
	return s.f.ReadAt(p, off)
}

func (s *fileSource) Size() (int64, error) {
	return s.size, nil
}

func (s *fileSource) Close() error {
	if s.mapping != nil {
		if err := unix.Munmap(s.mapping); err != nil {
			s.f.Close()
			return fmt.Errorf("reftable: munmap: %w", err)
		}
	}
	return s.f.Close()
}
