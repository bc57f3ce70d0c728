// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/antgroup/reftable/modules/reftable"
)

// entry pairs a table's parsed Name with its open Reader and on-disk size.
type entry struct {
	name   Name
	size   int64
	reader *reftable.Reader
}

// Stack is the ordered, on-disk collection of reftable files that together
// present one logical reference database (C10). The oldest table is index
// 0; the newest is last (§3.5).
type Stack struct {
	dir     string
	mu      sync.RWMutex
	entries []entry
}

// Open loads dir's manifest and opens every listed table, fanning the opens
// out across a bounded worker pool (§5: "pure I/O with no cross-reader
// dependency"). The resulting order is always manifest order regardless of
// how the opens complete.
func Open(ctx context.Context, dir string) (*Stack, error) {
	names, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]entry, len(names))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, n := range names {
		i, n := i, n
		g.Go(func() error {
			parsed, err := ParseName(n)
			if err != nil {
				return &reftable.ErrStackCorrupt{Reason: fmt.Sprintf("manifest entry %q", n), Cause: err}
			}
			path := filepath.Join(dir, n)
			fi, err := os.Stat(path)
			if err != nil {
				return &reftable.ErrStackCorrupt{Reason: fmt.Sprintf("stat table %q", n), Cause: err}
			}
			src, err := reftable.OpenFileSource(path)
			if err != nil {
				return &reftable.ErrStackCorrupt{Reason: fmt.Sprintf("open table %q", n), Cause: err}
			}
			r, err := reftable.Open(src)
			if err != nil {
				return &reftable.ErrStackCorrupt{Reason: fmt.Sprintf("parse table %q", n), Cause: err}
			}
			entries[i] = entry{name: parsed, size: fi.Size(), reader: r}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Stack{dir: dir, entries: entries}, nil
}

// Close closes every table reader owned by the stack.
func (s *Stack) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, e := range s.entries {
		if err := e.reader.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Merged returns a merged view (C9) over the stack's current readers,
// oldest first as required for correct merge precedence (§8 property 6).
func (s *Stack) Merged() *reftable.Merged {
	s.mu.RLock()
	defer s.mu.RUnlock()
	readers := make([]*reftable.Reader, len(s.entries))
	for i, e := range s.entries {
		readers[i] = e.reader
	}
	return reftable.NewMerged(readers)
}

// Add writes one new table to dir via fn, appends it to the manifest, and
// opens it as the stack's newest reader. It returns the table's on-disk
// size, which the caller can feed to the compaction policy.
func (s *Stack) Add(minUpdateIndex, maxUpdateIndex uint64, fn func(w *reftable.Writer) error) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := NewName(minUpdateIndex, maxUpdateIndex)
	if err != nil {
		return 0, err
	}
	path := filepath.Join(s.dir, name.String())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("reftable/stack: create table %s: %w", name, err)
	}
	cfg := reftable.DefaultWriterConfig()
	cfg.MinUpdateIndex = minUpdateIndex
	cfg.MaxUpdateIndex = maxUpdateIndex
	w := reftable.NewWriter(f, cfg)
	if err := fn(w); err != nil {
		f.Close()
		os.Remove(path)
		return 0, err
	}
	if _, err := w.Finish(); err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("reftable/stack: finish table %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("reftable/stack: sync table %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("reftable/stack: close table %s: %w", name, err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("reftable/stack: stat new table %s: %w", name, err)
	}
	src, err := reftable.OpenFileSource(path)
	if err != nil {
		return 0, fmt.Errorf("reftable/stack: reopen new table %s: %w", name, err)
	}
	r, err := reftable.Open(src)
	if err != nil {
		return 0, fmt.Errorf("reftable/stack: parse new table %s: %w", name, err)
	}

	names := s.namesLocked()
	names = append(names, name.String())
	if err := writeManifest(s.dir, names); err != nil {
		r.Close()
		os.Remove(path)
		return 0, err
	}
	s.entries = append(s.entries, entry{name: name, size: fi.Size(), reader: r})
	return fi.Size(), nil
}

func (s *Stack) namesLocked() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.name.String()
	}
	return out
}

// Sizes returns the on-disk size of every table, oldest first.
func (s *Stack) Sizes() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.size
	}
	return out
}

// Len reports the number of tables currently in the stack.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
