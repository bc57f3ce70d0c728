// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"fmt"
	"io"
	"sort"
)

// WriterConfig holds the §6.2 writer options.
type WriterConfig struct {
	BlockSize       int
	RestartInterval int
	MinUpdateIndex  uint64
	MaxUpdateIndex  uint64
	IndexObjects    bool
	Alignment       int
}

// DefaultWriterConfig returns the §6.2 defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BlockSize:       4096,
		RestartInterval: 16,
		Alignment:       4096,
	}
}

func (c WriterConfig) normalize() WriterConfig {
	if c.BlockSize == 0 {
		c.BlockSize = 4096
	}
	if c.RestartInterval == 0 {
		c.RestartInterval = 16
	}
	if c.Alignment == 0 {
		c.Alignment = c.BlockSize
	}
	return c
}

// Stats are the writer statistics exposed on Finish (§4.7).
type Stats struct {
	TotalBytes       int64
	RefBytes         int64
	LogBytes         int64
	PaddingBytes     int64
	RefBlockCount    int
	RefIndexKeys     int
	RefIndexSize     int64
	LogBlockCount    int
	RefCount         int
	AverageBlockFill float64
	HashID           string
}

// Writer orchestrates C3-C6 to produce one reftable file (C7). Callers add
// refs in increasing key order, then logs in increasing key order, then
// call Finish.
type Writer struct {
	out io.Writer
	cfg WriterConfig

	offset      int64
	firstBlock  bool
	cur         *blockWriter
	refsDone    bool
	logsStarted bool
	finished    bool

	refIndexEntries []indexEntry
	logIndexEntries []indexEntry
	objIDs          map[ObjectID][]uint64 // value: ref block offsets referencing this id

	refIdxOffset     uint64
	objIdxOffset     uint64
	logSectionOffset uint64

	lastRefKey []byte
	lastLogKey []byte

	stats Stats
}

// NewWriter creates a Writer over out with the given configuration.
func NewWriter(out io.Writer, cfg WriterConfig) *Writer {
	cfg = cfg.normalize()
	w := &Writer{
		out:        out,
		cfg:        cfg,
		firstBlock: true,
		stats:      Stats{HashID: "sha1"},
	}
	if cfg.IndexObjects {
		w.objIDs = make(map[ObjectID][]uint64)
	}
	return w
}

func (w *Writer) header() Header {
	return Header{
		BlockSize:      uint32(w.cfg.BlockSize),
		MinUpdateIndex: w.cfg.MinUpdateIndex,
		MaxUpdateIndex: w.cfg.MaxUpdateIndex,
	}
}

// AddRef appends one ref record. Refs must be added in strictly increasing
// key order before any call to AddLog.
func (w *Writer) AddRef(r *RefRecord) error {
	if w.logsStarted {
		return fmt.Errorf("reftable: cannot add ref after logs have started")
	}
	if err := r.validate(); err != nil {
		return err
	}
	key := []byte(r.Name)
	if w.lastRefKey != nil && compareKeys(w.lastRefKey, key) >= 0 {
		return &ErrOutOfOrderKey{Prior: string(w.lastRefKey), Got: r.Name}
	}
	w.lastRefKey = append(w.lastRefKey[:0], key...)

	if w.cur == nil {
		w.cur = w.newDataBlock(blockTypeRef)
	}
	value := r.encodeValue(nil)
	refOffset := w.offset
	for !w.cur.add(key, byte(r.Type), value) {
		if w.cur.empty() {
			return &ErrBlockSizeTooSmall{Minimum: len(key) + len(value) + 16}
		}
		if err := w.flushCurrent(); err != nil {
			return err
		}
		w.cur = w.newDataBlock(blockTypeRef)
		refOffset = w.offset
	}
	if w.objIDs != nil {
		switch r.Type {
		case RefDirect, RefPeeledTag:
			w.objIDs[r.Value] = appendOffsetOnce(w.objIDs[r.Value], uint64(refOffset))
		}
		if r.Type == RefPeeledTag {
			w.objIDs[r.Peeled] = appendOffsetOnce(w.objIDs[r.Peeled], uint64(refOffset))
		}
	}
	w.stats.RefCount++
	return nil
}

func appendOffsetOnce(offsets []uint64, off uint64) []uint64 {
	for _, o := range offsets {
		if o == off {
			return offsets
		}
	}
	return append(offsets, off)
}

// AddLog appends one log record. Logs must be added in strictly increasing
// key order.
func (w *Writer) AddLog(l *LogRecord) error {
	if !w.refsDone {
		if err := w.finishRefSection(); err != nil {
			return err
		}
	}
	if !w.logsStarted {
		w.logSectionOffset = uint64(w.offset)
	}
	w.logsStarted = true
	key := l.Key()
	if w.lastLogKey != nil && compareKeys(w.lastLogKey, key) >= 0 {
		return &ErrOutOfOrderKey{Prior: string(w.lastLogKey), Got: string(key)}
	}
	w.lastLogKey = append(w.lastLogKey[:0], key...)

	if w.cur == nil {
		w.cur = w.newDataBlock(blockTypeLog)
	}
	value := l.encodeValue(nil)
	for !w.cur.add(key, 0, value) {
		if w.cur.empty() {
			return &ErrBlockSizeTooSmall{Minimum: len(key) + len(value) + 16}
		}
		if err := w.flushCurrent(); err != nil {
			return err
		}
		w.cur = w.newDataBlock(blockTypeLog)
	}
	return nil
}

func (w *Writer) newDataBlock(typ blockType) *blockWriter {
	bw := newBlockWriter(typ, w.cfg.BlockSize, w.cfg.RestartInterval)
	if w.firstBlock {
		bw.headerReserve = HeaderSize
		w.firstBlock = false
	}
	return bw
}

func (w *Writer) flushCurrent() error {
	if w.cur == nil || w.cur.empty() {
		w.cur = nil
		return nil
	}
	data, err := w.cur.finish()
	if err != nil {
		return err
	}
	if w.cur.headerReserve > 0 {
		copy(data[0:HeaderSize], w.header().encode())
	}
	if _, err := w.out.Write(data); err != nil {
		return fmt.Errorf("reftable: write block: %w", err)
	}
	used := w.cur.headerReserve + blockHeaderSize + len(w.cur.body) +
		blockTrailerEntrySize*len(w.cur.restarts) + blockTrailerCountSize
	w.stats.PaddingBytes += int64(len(data) - used)
	entry := indexEntry{lastKey: append([]byte(nil), w.cur.lastKey...), offset: uint64(w.offset)}
	switch w.cur.typ {
	case blockTypeRef:
		w.refIndexEntries = append(w.refIndexEntries, entry)
		w.stats.RefBlockCount++
		w.stats.RefBytes += int64(len(data))
	case blockTypeLog:
		w.logIndexEntries = append(w.logIndexEntries, entry)
		w.stats.LogBlockCount++
		w.stats.LogBytes += int64(len(data))
	}
	w.offset += int64(len(data))
	w.cur = nil
	return nil
}

// writeIndexSection serializes a multi-level index over entries,
// recursing per §4.6/§9 until a single top-level block remains, and
// returns that top-level block's file offset (0, with nothing written, if
// entries holds at most one block).
func (w *Writer) writeIndexSection(entries []indexEntry) (uint64, error) {
	if len(entries) <= 1 {
		return 0, nil
	}
	for {
		blocks, err := buildIndexLevel(entries, w.cfg.BlockSize, w.cfg.RestartInterval)
		if err != nil {
			return 0, err
		}
		next := make([]indexEntry, 0, len(blocks))
		for _, b := range blocks {
			data, err := b.finish()
			if err != nil {
				return 0, err
			}
			off := w.offset
			if _, err := w.out.Write(data); err != nil {
				return 0, fmt.Errorf("reftable: write index block: %w", err)
			}
			w.offset += int64(len(data))
			next = append(next, indexEntry{lastKey: append([]byte(nil), b.lastKey...), offset: uint64(off)})
		}
		if len(next) == 1 {
			return next[0].offset, nil
		}
		entries = next
	}
}

func (w *Writer) finishRefSection() error {
	if w.refsDone {
		return nil
	}
	if err := w.flushCurrent(); err != nil {
		return err
	}
	refIdxOff, err := w.writeIndexSection(w.refIndexEntries)
	if err != nil {
		return err
	}
	w.stats.RefIndexKeys = len(w.refIndexEntries)
	w.refIdxOffset = refIdxOff

	if w.objIDs != nil && len(w.objIDs) > 0 {
		off, err := w.writeObjIndex()
		if err != nil {
			return err
		}
		w.objIdxOffset = off
	}
	w.refsDone = true
	return nil
}

func (w *Writer) writeObjIndex() (uint64, error) {
	ids := make([]ObjectID, 0, len(w.objIDs))
	for id := range w.objIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return compareKeys(ids[i][:], ids[j][:]) < 0 })

	cur := newBlockWriter(blockTypeIndex, w.cfg.BlockSize, w.cfg.RestartInterval)
	var entries []indexEntry
	flush := func() error {
		if cur.empty() {
			return nil
		}
		data, err := cur.finish()
		if err != nil {
			return err
		}
		off := w.offset
		if _, err := w.out.Write(data); err != nil {
			return fmt.Errorf("reftable: write object index block: %w", err)
		}
		w.offset += int64(len(data))
		entries = append(entries, indexEntry{lastKey: append([]byte(nil), cur.lastKey...), offset: uint64(off)})
		return nil
	}
	for _, id := range ids {
		offsets := w.objIDs[id]
		sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
		value := putVarint(nil, uint64(len(offsets)))
		for _, o := range offsets {
			value = putVarint(value, o)
		}
		for !cur.add(id[:], 0, value) {
			if cur.empty() {
				return 0, &ErrBlockSizeTooSmall{Minimum: ObjectIDSize + len(value) + 16}
			}
			if err := flush(); err != nil {
				return 0, err
			}
			cur = newBlockWriter(blockTypeIndex, w.cfg.BlockSize, w.cfg.RestartInterval)
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if len(entries) == 1 {
		return entries[0].offset, nil
	}
	return w.writeIndexSection(entries)
}

// Finish flushes any pending blocks, writes the footer, and returns the
// writer's final statistics.
func (w *Writer) Finish() (Stats, error) {
	if w.finished {
		return w.stats, fmt.Errorf("reftable: writer already finished")
	}
	w.finished = true

	if !w.refsDone {
		if err := w.finishRefSection(); err != nil {
			return w.stats, err
		}
	}
	if err := w.flushCurrent(); err != nil {
		return w.stats, err
	}
	logIdxOff, err := w.writeIndexSection(w.logIndexEntries)
	if err != nil {
		return w.stats, err
	}
	w.stats.LogBlockCount = len(w.logIndexEntries)

	if w.firstBlock {
		// No ref or log blocks were ever written: the header still has to
		// occupy the first HeaderSize bytes of the file (§4.7: "a reftable
		// with zero refs and zero logs is valid").
		if _, err := w.out.Write(w.header().encode()); err != nil {
			return w.stats, fmt.Errorf("reftable: write header: %w", err)
		}
		w.offset += HeaderSize
	}

	footer := Footer{
		Header:         w.header(),
		RefIndexOffset: w.refIdxOffset,
		ObjIndexOffset: w.objIdxOffset,
		LogOffset:      w.logSectionOffset,
		LogIndexOffset: logIdxOff,
		FileSize:       uint64(w.offset) + FooterSize,
	}
	data := footer.encode()
	if _, err := w.out.Write(data); err != nil {
		return w.stats, fmt.Errorf("reftable: write footer: %w", err)
	}
	w.offset += int64(len(data))
	w.stats.TotalBytes = w.offset
	if w.stats.RefBlockCount+w.stats.LogBlockCount > 0 {
		used := w.stats.RefBytes + w.stats.LogBytes - w.stats.PaddingBytes
		total :=int64(w.cfg.BlockSize) * int64(w.stats.RefBlockCount+w.stats.LogBlockCount)
		if total > 0 {
			w.stats.AverageBlockFill = float64(used) / float64(total)
		}
	}
	return w.stats, nil
}
