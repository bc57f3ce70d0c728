// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import "fmt"

// Reader opens one reftable file for point lookup and ordered iteration
// (C8). It never mutates the underlying BlockSource.
type Reader struct {
	src    BlockSource
	header Header
	footer Footer
	size   int64

	refStart, refEnd int64
	objStart, objEnd int64
	logStart, logEnd int64

	includeDeletes bool
	estSeeks       int64
}

// Open reads and validates the header and footer of src and prepares a
// Reader for seeking. It does not read any ref or log blocks eagerly.
func Open(src BlockSource) (*Reader, error) {
	size, err := src.Size()
	if err != nil {
		return nil, fmt.Errorf("reftable: stat source: %w", err)
	}
	if size < HeaderSize+FooterSize {
		return nil, &ErrMalformedHeader{Reason: "file shorter than header+footer"}
	}
	hbuf, err := readBlockAt(src, 0, HeaderSize)
	if err != nil {
		return nil, err
	}
	header, err := decodeHeader(hbuf)
	if err != nil {
		return nil, err
	}
	fbuf, err := readBlockAt(src, size-FooterSize, FooterSize)
	if err != nil {
		return nil, err
	}
	footer, err := decodeFooter(fbuf, size-FooterSize)
	if err != nil {
		return nil, err
	}
	if !headersEqual(header, footer.Header) {
		return nil, &ErrMalformedFooter{Reason: "footer header copy disagrees with file header", Offset: size - FooterSize}
	}
	if footer.FileSize != uint64(size) {
		return nil, &ErrMalformedFooter{Reason: "footer file_size disagrees with actual size", Offset: size - FooterSize}
	}

	r := &Reader{src: src, header: header, footer: footer, size: size}
	dataEnd := uint64(size) - FooterSize

	r.refStart = HeaderSize
	r.refEnd = int64(firstNonZero(footer.RefIndexOffset, footer.ObjIndexOffset, footer.LogOffset, dataEnd))

	r.objStart = int64(footer.ObjIndexOffset)
	r.objEnd = int64(firstNonZero(footer.LogOffset, dataEnd))
	if footer.ObjIndexOffset == 0 {
		r.objStart, r.objEnd = 0, 0
	}

	r.logStart = int64(footer.LogOffset)
	r.logEnd = int64(firstNonZero(footer.LogIndexOffset, dataEnd))
	if footer.LogOffset == 0 {
		r.logStart, r.logEnd = 0, 0
	}
	return r, nil
}

func firstNonZero(vs ...uint64) uint64 {
	for _, v := range vs {
		if v != 0 {
			return v
		}
	}
	return 0
}

// Close releases the underlying BlockSource.
func (r *Reader) Close() error {
	return r.src.Close()
}

// MinUpdateIndex and MaxUpdateIndex report the table's header bounds.
func (r *Reader) MinUpdateIndex() uint64 { return r.header.MinUpdateIndex }
func (r *Reader) MaxUpdateIndex() uint64 { return r.header.MaxUpdateIndex }

// SetIncludeDeletes controls whether subsequently created cursors surface
// tombstone records or silently skip them.
func (r *Reader) SetIncludeDeletes(v bool) { r.includeDeletes = v }

// EstimatedDiskSeeks reports the number of block reads this reader has
// issued to its BlockSource so far, counting a re-read of the same block
// again each time (§4.8).
func (r *Reader) EstimatedDiskSeeks() int64 { return r.estSeeks }

func (r *Reader) readBlockAt(off int64) (*blockReader, error) {
	headerReserve := 0
	if off == 0 {
		headerReserve = HeaderSize
	}
	raw, err := readBlockAt(r.src, off, int(r.header.BlockSize))
	if err != nil {
		return nil, err
	}
	r.estSeeks++
	return parseBlock(raw, headerReserve)
}

// findDataBlock returns the file offset of a data block (of whatever
// section [sectionStart, sectionEnd) describes) from which a forward scan
// reaches target. A linear scan of first-keys (no index) returns the block
// that could contain target; the index path returns the last block whose
// last key is <= target, which may be the block just before it.
func (r *Reader) findDataBlock(sectionStart, sectionEnd int64, indexOffset uint64, target []byte) (int64, error) {
	if sectionStart >= sectionEnd {
		return sectionEnd, nil
	}
	if indexOffset != 0 {
		return r.descendIndex(int64(indexOffset), target)
	}
	return r.linearFindBlock(sectionStart, sectionEnd, target)
}

func (r *Reader) descendIndex(off int64, target []byte) (int64, error) {
	for {
		b, err := r.readBlockAt(off)
		if err != nil {
			return 0, err
		}
		if b.typ != blockTypeIndex {
			return off, nil
		}
		restartIdx, err := b.seekRestart(target)
		if err != nil {
			return 0, err
		}
		pos := 0
		if restartIdx >= 0 {
			pos = int(b.restarts[restartIdx])
		}
		childOff := int64(-1)
		var prevKey []byte
		for pos < len(b.body) {
			h, newPos, err := b.decodeEntryHeader(pos)
			if err != nil {
				return 0, err
			}
			key, err := reconstructKey(prevKey, h)
			if err != nil {
				return 0, err
			}
			v, n := getVarint(b.body[h.valueOffset:])
			if n == 0 {
				return 0, &ErrMalformedBlock{Reason: "truncated index entry offset"}
			}
			if compareKeys(key, target) <= 0 {
				childOff = int64(v)
				prevKey = key
				pos = h.valueOffset + n
				_ = newPos
				continue
			}
			break
		}
		if childOff < 0 {
			// target precedes every key in this block: fall back to its
			// first entry, the closest available lower bound.
			h, _, err := b.decodeEntryHeader(0)
			if err != nil {
				return 0, err
			}
			v, n := getVarint(b.body[h.valueOffset:])
			if n == 0 {
				return 0, &ErrMalformedBlock{Reason: "truncated index entry offset"}
			}
			childOff = int64(v)
		}
		off = childOff
	}
}

func (r *Reader) linearFindBlock(sectionStart, sectionEnd int64, target []byte) (int64, error) {
	blockSize := int64(r.header.BlockSize)
	candidate := sectionStart
	for off := sectionStart; off < sectionEnd; off += blockSize {
		b, err := r.readBlockAt(off)
		if err != nil {
			return 0, err
		}
		if len(b.restarts) == 0 {
			continue
		}
		firstKey, err := b.restartKey(0)
		if err != nil {
			return 0, err
		}
		if compareKeys(firstKey, target) > 0 {
			break
		}
		candidate = off
	}
	return candidate, nil
}

// blockCursor walks entries across consecutive data blocks of one section,
// value-format agnostic: callers decode the raw value bytes themselves and
// report back how many bytes they consumed.
type blockCursor struct {
	r            *Reader
	sectionEnd   int64
	nextBlockOff int64
	block        *blockReader
	pos          int
	pendingOff   int
	prevKey      []byte
}

func (r *Reader) newCursorAt(off, sectionEnd int64) (*blockCursor, error) {
	c := &blockCursor{r: r, sectionEnd: sectionEnd, nextBlockOff: off}
	if err := c.loadNextBlock(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *blockCursor) loadNextBlock() error {
	if c.nextBlockOff >= c.sectionEnd {
		c.block = nil
		return nil
	}
	b, err := c.r.readBlockAt(c.nextBlockOff)
	if err != nil {
		return err
	}
	if b.typ == blockTypeIndex {
		return &ErrMalformedBlock{Reason: "expected data block, found index block", BlockOffset: c.nextBlockOff}
	}
	c.block = b
	c.pos = 0
	c.prevKey = nil
	c.nextBlockOff += int64(c.r.header.BlockSize)
	return nil
}

func (c *blockCursor) seekWithinBlock(target []byte) error {
	if c.block == nil {
		return nil
	}
	idx, err := c.block.seekRestart(target)
	if err != nil {
		return err
	}
	if idx < 0 {
		c.pos = 0
	} else {
		c.pos = int(c.block.restarts[idx])
	}
	c.prevKey = nil
	return nil
}

// step decodes the next entry's key, type and remaining value bytes without
// advancing past it; the caller must call advance once it knows how many
// value bytes it consumed.
func (c *blockCursor) step() (key []byte, typ byte, rest []byte, ok bool, err error) {
	for c.block != nil && c.pos >= len(c.block.body) {
		if err := c.loadNextBlock(); err != nil {
			return nil, 0, nil, false, err
		}
	}
	if c.block == nil {
		return nil, 0, nil, false, nil
	}
	h, _, err := c.block.decodeEntryHeader(c.pos)
	if err != nil {
		return nil, 0, nil, false, err
	}
	key, err = reconstructKey(c.prevKey, h)
	if err != nil {
		return nil, 0, nil, false, err
	}
	c.prevKey = key
	c.pendingOff = h.valueOffset
	return key, h.typ, c.block.body[h.valueOffset:], true, nil
}

func (c *blockCursor) advance(consumed int) {
	c.pos = c.pendingOff + consumed
}

// RefCursor iterates ref records of one table in key order (§6.3).
type RefCursor struct {
	bc             *blockCursor
	includeDeletes bool
	pending        *RefRecord
}

// SeekRef positions a cursor at the first ref record with name >= name.
func (r *Reader) SeekRef(name string) (*RefCursor, error) {
	return r.seekRef([]byte(name), r.includeDeletes)
}

// AllRefs returns a cursor over every ref record in the table.
func (r *Reader) AllRefs() (*RefCursor, error) {
	bc, err := r.newCursorAt(r.refStart, r.refEnd)
	if err != nil {
		return nil, err
	}
	return &RefCursor{bc: bc, includeDeletes: r.includeDeletes}, nil
}

func (r *Reader) seekRef(target []byte, includeDeletes bool) (*RefCursor, error) {
	off, err := r.findDataBlock(r.refStart, r.refEnd, r.footer.RefIndexOffset, target)
	if err != nil {
		return nil, err
	}
	bc, err := r.newCursorAt(off, r.refEnd)
	if err != nil {
		return nil, err
	}
	if err := bc.seekWithinBlock(target); err != nil {
		return nil, err
	}
	cur := &RefCursor{bc: bc, includeDeletes: includeDeletes}
	for {
		rec, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if compareKeys([]byte(rec.Name), target) >= 0 {
			cur.pending = &rec
			break
		}
	}
	return cur, nil
}

// HasRef reports whether name is present in the table as a live (non-
// tombstone) ref.
func (r *Reader) HasRef(name string) (bool, error) {
	cur, err := r.seekRef([]byte(name), r.includeDeletes)
	if err != nil {
		return false, err
	}
	rec, ok, err := cur.Next()
	if err != nil {
		return false, err
	}
	return ok && rec.Name == name && !rec.IsTombstone(), nil
}

// Next returns the next ref record, or ok=false once the cursor is
// exhausted.
func (c *RefCursor) Next() (RefRecord, bool, error) {
	if c.pending != nil {
		rec := *c.pending
		c.pending = nil
		return rec, true, nil
	}
	for {
		key, typ, rest, ok, err := c.bc.step()
		if err != nil || !ok {
			return RefRecord{}, false, err
		}
		rec, consumed, err := decodeRefValue(string(key), RefRecordType(typ), rest)
		if err != nil {
			return RefRecord{}, false, err
		}
		c.bc.advance(consumed)
		if rec.IsTombstone() && !c.includeDeletes {
			continue
		}
		return rec, true, nil
	}
}

// Close releases cursor-local state; it does not close the Reader.
func (c *RefCursor) Close() error { return nil }

// LogCursor iterates log records of one table in key order (§6.3).
type LogCursor struct {
	bc      *blockCursor
	pending *LogRecord
}

// AllLogs returns a cursor over every log record in the table.
func (r *Reader) AllLogs() (*LogCursor, error) {
	bc, err := r.newCursorAt(r.logStart, r.logEnd)
	if err != nil {
		return nil, err
	}
	return &LogCursor{bc: bc}, nil
}

// SeekLog positions a cursor at the newest log record for refName whose
// time is <= update. Pass ^uint64(0) (or any value >= the newest entry's
// time) to land on the most recent entry for refName.
func (r *Reader) SeekLog(refName string, update uint64) (*LogCursor, error) {
	seekRec := LogRecord{RefName: refName, Time: uint32(update)}
	target := seekRec.Key()
	off, err := r.findDataBlock(r.logStart, r.logEnd, r.footer.LogIndexOffset, target)
	if err != nil {
		return nil, err
	}
	bc, err := r.newCursorAt(off, r.logEnd)
	if err != nil {
		return nil, err
	}
	if err := bc.seekWithinBlock(target); err != nil {
		return nil, err
	}
	cur := &LogCursor{bc: bc}
	for {
		rec, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		key := rec.Key()
		if compareKeys(key, target) >= 0 {
			cur.pending = &rec
			break
		}
	}
	return cur, nil
}

// Next returns the next log record, or ok=false once the cursor is
// exhausted.
func (c *LogCursor) Next() (LogRecord, bool, error) {
	if c.pending != nil {
		rec := *c.pending
		c.pending = nil
		return rec, true, nil
	}
	key, _, rest, ok, err := c.bc.step()
	if err != nil || !ok {
		return LogRecord{}, false, err
	}
	refName, t, err := splitLogKey(key)
	if err != nil {
		return LogRecord{}, false, err
	}
	rec, consumed, err := decodeLogValue(refName, t, rest)
	if err != nil {
		return LogRecord{}, false, err
	}
	c.bc.advance(consumed)
	return rec, true, nil
}

// Close releases cursor-local state; it does not close the Reader.
func (c *LogCursor) Close() error { return nil }
