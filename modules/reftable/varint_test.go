// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVarintRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 2, 126, 127, 128, 129, 255, 256, 300, 16383, 16384, 16385, 1 << 20, 1 << 40, ^uint64(0)} {
		buf := putVarint(nil, v)
		assert.Equal(t, len(buf), varintSize(v), "varintSize mismatch for %d", v)
		got, n := getVarint(buf)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestVarintSizeMatchesEncodedLength(t *testing.T) {
	// 16384 packs into 2 bytes under the decrement-continuation scheme,
	// not 3 as a naive LEB128 byte count would suggest.
	assert.Equal(t, 2, varintSize(16384))
	assert.Len(t, putVarint(nil, 16384), 2)
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, 0, commonPrefix(nil, []byte("refs/heads/a")))
	assert.Equal(t, 5, commonPrefix([]byte("refs/"), []byte("refs/heads/a")))
	assert.Equal(t, 3, commonPrefix([]byte("abc"), []byte("abd")))
}

func TestEncodeDecodeLenAndType(t *testing.T) {
	for _, tc := range []struct {
		length int
		typ    byte
	}{{0, 0}, {1, 1}, {15, 3}, {1000, 2}} {
		v := encodeLenAndType(tc.length, tc.typ)
		length, typ := decodeLenAndType(v)
		assert.Equal(t, tc.length, length)
		assert.Equal(t, tc.typ, typ)
	}
}
