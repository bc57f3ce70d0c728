// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

// indexEntry is one (last key of a block, file offset of that block) pair
// (§4.6).
type indexEntry struct {
	lastKey []byte
	offset  uint64
}

func encodeIndexValue(offset uint64) []byte {
	return putVarint(nil, offset)
}

func decodeIndexValue(p []byte) (uint64, error) {
	v, n := getVarint(p)
	if n == 0 {
		return 0, &ErrMalformedBlock{Reason: "truncated index offset"}
	}
	return v, nil
}

// buildIndexLevel packs one level of index entries into one or more index
// blocks, deferring restart selection to a flush-time stride as §4.4
// prescribes for index blocks: `stride = max(restart_interval,
// entries/65536)`, restarting at every stride'th global entry index.
func buildIndexLevel(entries []indexEntry, blockSize, restartInterval int) ([]*blockWriter, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	stride := restartInterval
	if s := len(entries) / maxRestarts; s > stride {
		stride = s
	}

	var blocks []*blockWriter
	cur := newBlockWriter(blockTypeIndex, blockSize, restartInterval)
	for i, e := range entries {
		restart := i%stride == 0 || cur.empty()
		if !cur.addForced(e.lastKey, 0, encodeIndexValue(e.offset), restart) {
			if cur.empty() {
				return nil, &ErrBlockSizeTooSmall{Minimum: len(e.lastKey) + 16}
			}
			blocks = append(blocks, cur)
			cur = newBlockWriter(blockTypeIndex, blockSize, restartInterval)
			if !cur.addForced(e.lastKey, 0, encodeIndexValue(e.offset), true) {
				return nil, &ErrBlockSizeTooSmall{Minimum: len(e.lastKey) + 16}
			}
		}
	}
	blocks = append(blocks, cur)
	return blocks, nil
}
