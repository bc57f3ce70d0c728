// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/antgroup/reftable/modules/reftable"
)

// PlanCompaction applies the §4.10 geometric policy to sizes (oldest
// first): starting from the newest table, it extends the candidate suffix
// one table at a time while the running suffix total stays within twice
// the size of the table just before it, and returns the first index of the
// longest such suffix. ok is false when no suffix of length >= 2 qualifies.
func PlanCompaction(sizes []int64) (start int, ok bool) {
	n := len(sizes)
	if n < 2 {
		return 0, false
	}
	j := n - 1
	sum := sizes[j]
	for j > 0 && sum <= 2*sizes[j-1] {
		j--
		sum += sizes[j]
	}
	if j == n-1 {
		return 0, false
	}
	return j, true
}

// Compact applies PlanCompaction to the stack's current table sizes and,
// if a qualifying suffix exists, merges it into a single new table (§4.10).
// It reports whether a compaction ran.
func (s *Stack) Compact() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sizes := make([]int64, len(s.entries))
	for i, e := range s.entries {
		sizes[i] = e.size
	}
	start, ok := PlanCompaction(sizes)
	if !ok {
		return false, nil
	}
	return true, s.compactSuffixLocked(start)
}

// CompactAll merges every table in the stack into one, regardless of the
// geometric policy; all tombstones are dropped since nothing outside the
// stack can depend on them.
func (s *Stack) CompactAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) < 2 {
		return nil
	}
	return s.compactSuffixLocked(0)
}

// compactSuffixLocked merges s.entries[start:] into one new table and
// atomically swaps it in. Callers must hold s.mu.
func (s *Stack) compactSuffixLocked(start int) error {
	suffix := s.entries[start:]
	readers := make([]*reftable.Reader, len(suffix))
	for i, e := range suffix {
		readers[i] = e.reader
	}
	merged := reftable.NewMerged(readers)
	// Tombstones must stay visible here even when start != 0: one may still
	// shadow a ref defined below the suffix being compacted. They are
	// dropped from the output below, but only for a whole-stack compaction.
	merged.SetIncludeDeletes(true)

	minIdx := suffix[0].name.Min
	maxIdx := suffix[len(suffix)-1].name.Max
	name, err := NewName(minIdx, maxIdx)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name.String())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("reftable/stack: create compacted table %s: %w", name, err)
	}

	cfg := reftable.DefaultWriterConfig()
	cfg.MinUpdateIndex = minIdx
	cfg.MaxUpdateIndex = maxIdx
	w := reftable.NewWriter(f, cfg)

	refCur, err := merged.AllRefs()
	if err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("reftable/stack: scan refs for compaction: %w", err)
	}
	for {
		rec, hasMore, err := refCur.Next()
		if err != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("reftable/stack: read ref during compaction: %w", err)
		}
		if !hasMore {
			break
		}
		if rec.IsTombstone() && start == 0 {
			continue
		}
		r := rec
		if err := w.AddRef(&r); err != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("reftable/stack: write ref during compaction: %w", err)
		}
	}

	logCur, err := merged.AllLogs()
	if err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("reftable/stack: scan logs for compaction: %w", err)
	}
	for {
		rec, hasMore, err := logCur.Next()
		if err != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("reftable/stack: read log during compaction: %w", err)
		}
		if !hasMore {
			break
		}
		l := rec
		if err := w.AddLog(&l); err != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("reftable/stack: write log during compaction: %w", err)
		}
	}

	if _, err := w.Finish(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("reftable/stack: finish compacted table %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("reftable/stack: sync compacted table %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("reftable/stack: close compacted table %s: %w", name, err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reftable/stack: stat compacted table %s: %w", name, err)
	}
	src, err := reftable.OpenFileSource(path)
	if err != nil {
		return fmt.Errorf("reftable/stack: reopen compacted table %s: %w", name, err)
	}
	newReader, err := reftable.Open(src)
	if err != nil {
		return fmt.Errorf("reftable/stack: parse compacted table %s: %w", name, err)
	}

	newEntries := make([]entry, 0, start+1)
	newEntries = append(newEntries, s.entries[:start]...)
	newEntries = append(newEntries, entry{name: name, size: fi.Size(), reader: newReader})

	names := make([]string, len(newEntries))
	for i, e := range newEntries {
		names[i] = e.name.String()
	}
	if err := writeManifest(s.dir, names); err != nil {
		newReader.Close()
		os.Remove(path)
		return err
	}

	for _, e := range suffix {
		e.reader.Close()
		os.Remove(filepath.Join(s.dir, e.name.String()))
	}
	s.entries = newEntries
	return nil
}
