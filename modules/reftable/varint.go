// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

// putVarint appends the big-endian decrement-continuation unsigned varint
// encoding of v to dst and returns the extended slice.
func putVarint(dst []byte, v uint64) []byte {
	var tmp [10]byte
	n := len(tmp)
	n--
	tmp[n] = byte(v & 0x7f)
	v >>= 7
	for v > 0 {
		v--
		n--
		tmp[n] = byte(v&0x7f) | 0x80
		v >>= 7
	}
	return append(dst, tmp[n:]...)
}

// varintSize returns the number of bytes putVarint would emit for v. It
// mirrors putVarint's own loop exactly: the canonical decrement-continuation
// scheme packs a few more values per byte than plain LEB128 near powers of
// 128, so a naive shift-and-count formula under-counts.
func varintSize(v uint64) int {
	n := 1
	v >>= 7
	for v > 0 {
		v--
		n++
		v >>= 7
	}
	return n
}

// getVarint decodes a varint from the front of p, returning the value and
// the number of bytes consumed. It returns (0, 0) if p does not contain a
// complete varint.
func getVarint(p []byte) (uint64, int) {
	var v uint64
	for i, b := range p {
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1
		}
		v++
	}
	return 0, 0
}

// commonPrefix returns the length of the longest shared byte prefix of a
// and b.
func commonPrefix(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// encodeLenAndType packs a suffix length and a 2-bit type tag into the
// single value the entry header's second varint carries.
func encodeLenAndType(length int, t byte) uint64 {
	return uint64(length)<<2 | uint64(t&0x3)
}

// decodeLenAndType is the inverse of encodeLenAndType.
func decodeLenAndType(v uint64) (length int, t byte) {
	return int(v >> 2), byte(v & 0x3)
}
