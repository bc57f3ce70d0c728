// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

// blockReader parses one on-disk block's type tag, body, and restart
// trailer (§4.5). The restart_count and restart_offsets fields sit at the
// tail of the full block region (padding, if any, lives between the
// entries and the trailer), so they must be located from the end of the
// block inward rather than from body_len outward.
type blockReader struct {
	typ      blockType
	body     []byte
	restarts []uint32
}

func parseBlock(raw []byte, headerReserve int) (*blockReader, error) {
	off := headerReserve
	if off+blockHeaderSize > len(raw) {
		return nil, &ErrMalformedBlock{Reason: "block shorter than its header"}
	}
	typ := blockType(raw[off])
	switch typ {
	case blockTypeRef, blockTypeLog, blockTypeIndex:
	default:
		return nil, &ErrMalformedBlock{Reason: "unrecognized block type tag"}
	}
	bodyLen := int(getUint24(raw[off+1 : off+4]))
	bodyStart := off + blockHeaderSize
	if bodyStart+bodyLen > len(raw) {
		return nil, &ErrMalformedBlock{Reason: "body_len overruns block"}
	}
	if len(raw) < blockTrailerCountSize {
		return nil, &ErrMalformedBlock{Reason: "block too short for restart trailer"}
	}
	count := int(getUint16(raw[len(raw)-blockTrailerCountSize:]))
	restartsEnd := len(raw) - blockTrailerCountSize
	restartsStart := restartsEnd - blockTrailerEntrySize*count
	if restartsStart < bodyStart+bodyLen {
		return nil, &ErrMalformedBlock{Reason: "restart table overlaps entries"}
	}
	restarts := make([]uint32, count)
	for i := 0; i < count; i++ {
		p := restartsStart + blockTrailerEntrySize*i
		restarts[i] = getUint32(raw[p : p+blockTrailerEntrySize])
	}
	return &blockReader{typ: typ, body: raw[bodyStart : bodyStart+bodyLen], restarts: restarts}, nil
}

// entryHeader is the generic, value-agnostic decode of one entry's key
// material; the caller (ref/log/index cursor) interprets the remaining
// bytes per its own value encoding and reports back how many it consumed.
type entryHeader struct {
	pfxLen      int
	typ         byte
	suffix      []byte
	valueOffset int // offset into body where the value bytes begin
}

func (b *blockReader) decodeEntryHeader(pos int) (entryHeader, int, error) {
	if pos >= len(b.body) {
		return entryHeader{}, 0, &ErrMalformedBlock{Reason: "entry header read past body end", EntryOffset: pos}
	}
	p := b.body[pos:]
	pfx, n1 := getVarint(p)
	if n1 == 0 {
		return entryHeader{}, 0, &ErrMalformedBlock{Reason: "truncated prefix-length varint", EntryOffset: pos}
	}
	lt, n2 := getVarint(p[n1:])
	if n2 == 0 {
		return entryHeader{}, 0, &ErrMalformedBlock{Reason: "truncated length/type varint", EntryOffset: pos}
	}
	suffixLen, typ := decodeLenAndType(lt)
	suffixStart := pos + n1 + n2
	if suffixLen < 0 || suffixStart+suffixLen > len(b.body) {
		return entryHeader{}, 0, &ErrMalformedBlock{Reason: "suffix runs past block body", EntryOffset: pos}
	}
	h := entryHeader{
		pfxLen:      int(pfx),
		typ:         typ,
		suffix:      b.body[suffixStart : suffixStart+suffixLen],
		valueOffset: suffixStart + suffixLen,
	}
	return h, suffixStart + suffixLen, nil
}

// reconstructKey rebuilds a full key from the prior key and an entry
// header's prefix length and suffix, failing if the prefix claims more
// bytes than the prior key actually had (§4.1: MalformedKey).
func reconstructKey(prev []byte, h entryHeader) ([]byte, error) {
	if h.pfxLen > len(prev) {
		return nil, &ErrMalformedBlock{Reason: "prefix length exceeds prior key"}
	}
	key := make([]byte, h.pfxLen+len(h.suffix))
	copy(key, prev[:h.pfxLen])
	copy(key[h.pfxLen:], h.suffix)
	return key, nil
}

// restartKey decodes the full key stored at a restart offset (pfxLen is
// always 0 there), without needing any prior key.
func (b *blockReader) restartKey(restartIdx int) ([]byte, error) {
	h, _, err := b.decodeEntryHeader(int(b.restarts[restartIdx]))
	if err != nil {
		return nil, err
	}
	if h.pfxLen != 0 {
		return nil, &ErrMalformedBlock{Reason: "restart entry has non-zero prefix length"}
	}
	return append([]byte(nil), h.suffix...), nil
}

// seekRestart returns the index of the last restart whose key is <= target,
// or -1 if target is smaller than every restart key (binary search phase of
// §4.5's two-phase seek).
func (b *blockReader) seekRestart(target []byte) (int, error) {
	lo, hi := 0, len(b.restarts)-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		k, err := b.restartKey(mid)
		if err != nil {
			return 0, err
		}
		if compareKeys(k, target) <= 0 {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best, nil
}

func compareKeys(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
