// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"github.com/emirpasic/gods/trees/binaryheap"
)

// Merged presents a stack of readers as one ordered, deduplicated view
// (C9). Callers pass readers oldest-first; on a duplicate key, the reader
// with the highest index (the most recently written table) wins and the
// older copies are discarded without being surfaced.
type Merged struct {
	readers        []*Reader
	includeDeletes bool
}

// NewMerged builds a merged view over readers, oldest table first.
func NewMerged(readers []*Reader) *Merged {
	cp := make([]*Reader, len(readers))
	copy(cp, readers)
	return &Merged{readers: cp}
}

// SetIncludeDeletes controls whether subsequently created cursors surface
// tombstone records or treat them as absent.
func (m *Merged) SetIncludeDeletes(v bool) { m.includeDeletes = v }

type refHeapItem struct {
	idx int
	cur *RefCursor
	key []byte
	rec RefRecord
}

func refHeapCompare(a, b interface{}) int {
	x, y := a.(*refHeapItem), b.(*refHeapItem)
	if c := compareKeys(x.key, y.key); c != 0 {
		return c
	}
	return y.idx - x.idx
}

// MergedRefCursor iterates the merged, deduplicated ref view (§4.9).
type MergedRefCursor struct {
	heap           *binaryheap.Heap
	includeDeletes bool
}

func (m *Merged) newRefHeap(seek []byte) (*binaryheap.Heap, error) {
	h := binaryheap.NewWith(refHeapCompare)
	for i, r := range m.readers {
		var cur *RefCursor
		var err error
		// Sub-cursors always surface tombstones so a deletion in a newer
		// table can shadow an older definition; Next filters them afterwards.
		if seek == nil {
			cur, err = r.AllRefs()
			if err == nil {
				cur.includeDeletes = true
			}
		} else {
			cur, err = r.seekRef(seek, true)
		}
		if err != nil {
			return nil, &ErrMergeSourceFailed{ReaderIndex: i, Cause: err}
		}
		rec, ok, err := cur.Next()
		if err != nil {
			return nil, &ErrMergeSourceFailed{ReaderIndex: i, Cause: err}
		}
		if ok {
			h.Push(&refHeapItem{idx: i, cur: cur, key: []byte(rec.Name), rec: rec})
		}
	}
	return h, nil
}

// AllRefs returns a cursor over the merged ref view in key order.
func (m *Merged) AllRefs() (*MergedRefCursor, error) {
	h, err := m.newRefHeap(nil)
	if err != nil {
		return nil, err
	}
	return &MergedRefCursor{heap: h, includeDeletes: m.includeDeletes}, nil
}

// SeekRef returns a cursor positioned at the first merged ref >= name.
func (m *Merged) SeekRef(name string) (*MergedRefCursor, error) {
	h, err := m.newRefHeap([]byte(name))
	if err != nil {
		return nil, err
	}
	return &MergedRefCursor{heap: h, includeDeletes: m.includeDeletes}, nil
}

func (c *MergedRefCursor) advance(item *refHeapItem) error {
	rec, ok, err := item.cur.Next()
	if err != nil {
		return &ErrMergeSourceFailed{ReaderIndex: item.idx, Cause: err}
	}
	if ok {
		item.key = []byte(rec.Name)
		item.rec = rec
		c.heap.Push(item)
	}
	return nil
}

// Next returns the next merged ref record. Only the most recent table's
// record for a given name is surfaced; tombstones are hidden unless
// SetIncludeDeletes(true) was in effect when the cursor was created.
func (c *MergedRefCursor) Next() (RefRecord, bool, error) {
	for {
		top, ok := c.heap.Pop()
		if !ok {
			return RefRecord{}, false, nil
		}
		winner := top.(*refHeapItem)
		for {
			peek, ok := c.heap.Peek()
			if !ok {
				break
			}
			other := peek.(*refHeapItem)
			if compareKeys(other.key, winner.key) != 0 {
				break
			}
			c.heap.Pop()
			if err := c.advance(other); err != nil {
				return RefRecord{}, false, err
			}
		}
		rec := winner.rec
		if err := c.advance(winner); err != nil {
			return RefRecord{}, false, err
		}
		if rec.IsTombstone() && !c.includeDeletes {
			continue
		}
		return rec, true, nil
	}
}

// Close releases cursor-local state.
func (c *MergedRefCursor) Close() error { return nil }

type logHeapItem struct {
	idx int
	cur *LogCursor
	key []byte
	rec LogRecord
}

func logHeapCompare(a, b interface{}) int {
	x, y := a.(*logHeapItem), b.(*logHeapItem)
	if c := compareKeys(x.key, y.key); c != 0 {
		return c
	}
	return y.idx - x.idx
}

// MergedLogCursor iterates the merged, deduplicated log view (§4.9).
type MergedLogCursor struct {
	heap *binaryheap.Heap
}

func (m *Merged) newLogHeap(seekRef string, update uint64, seek bool) (*binaryheap.Heap, error) {
	h := binaryheap.NewWith(logHeapCompare)
	for i, r := range m.readers {
		var cur *LogCursor
		var err error
		if seek {
			cur, err = r.SeekLog(seekRef, update)
		} else {
			cur, err = r.AllLogs()
		}
		if err != nil {
			return nil, &ErrMergeSourceFailed{ReaderIndex: i, Cause: err}
		}
		rec, ok, err := cur.Next()
		if err != nil {
			return nil, &ErrMergeSourceFailed{ReaderIndex: i, Cause: err}
		}
		if ok {
			h.Push(&logHeapItem{idx: i, cur: cur, key: rec.Key(), rec: rec})
		}
	}
	return h, nil
}

// AllLogs returns a cursor over the merged log view in key order.
func (m *Merged) AllLogs() (*MergedLogCursor, error) {
	h, err := m.newLogHeap("", 0, false)
	if err != nil {
		return nil, err
	}
	return &MergedLogCursor{heap: h}, nil
}

// SeekLog returns a cursor positioned at the newest merged log entry for
// refName whose time is <= update.
func (m *Merged) SeekLog(refName string, update uint64) (*MergedLogCursor, error) {
	h, err := m.newLogHeap(refName, update, true)
	if err != nil {
		return nil, err
	}
	return &MergedLogCursor{heap: h}, nil
}

func (c *MergedLogCursor) advance(item *logHeapItem) error {
	rec, ok, err := item.cur.Next()
	if err != nil {
		return &ErrMergeSourceFailed{ReaderIndex: item.idx, Cause: err}
	}
	if ok {
		item.key = rec.Key()
		item.rec = rec
		c.heap.Push(item)
	}
	return nil
}

// Next returns the next merged log record.
func (c *MergedLogCursor) Next() (LogRecord, bool, error) {
	top, ok := c.heap.Pop()
	if !ok {
		return LogRecord{}, false, nil
	}
	winner := top.(*logHeapItem)
	for {
		peek, ok := c.heap.Peek()
		if !ok {
			break
		}
		other := peek.(*logHeapItem)
		if compareKeys(other.key, winner.key) != 0 {
			break
		}
		c.heap.Pop()
		if err := c.advance(other); err != nil {
			return LogRecord{}, false, err
		}
	}
	rec := winner.rec
	if err := c.advance(winner); err != nil {
		return LogRecord{}, false, err
	}
	return rec, true, nil
}

// Close releases cursor-local state.
func (c *MergedLogCursor) Close() error { return nil }
