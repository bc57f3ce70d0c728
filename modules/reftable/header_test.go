// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{BlockSize: 4096, MinUpdateIndex: 1, MaxUpdateIndex: 42}
	buf := h.encode()
	assert.Len(t, buf, HeaderSize)
	got, err := decodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	h := Header{BlockSize: 4096}
	buf := h.encode()
	buf[0] = 0xff
	_, err := decodeHeader(buf)
	assert.Error(t, err)
}

func TestDecodeHeaderRejectsBadVersion(t *testing.T) {
	h := Header{BlockSize: 4096}
	buf := h.encode()
	buf[4] = 0x02
	_, err := decodeHeader(buf)
	assert.Error(t, err)
}

func TestDecodeHeaderRejectsTruncated(t *testing.T) {
	_, err := decodeHeader(make([]byte, HeaderSize-1))
	assert.Error(t, err)
}

func TestUintCodecRoundTrip(t *testing.T) {
	b24 := make([]byte, 3)
	putUint24(b24, 0xABCDEF)
	assert.Equal(t, uint32(0xABCDEF), getUint24(b24))

	b32 := make([]byte, 4)
	putUint32(b32, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), getUint32(b32))

	b64 := make([]byte, 8)
	putUint64(b64, 0x0102030405060708)
	assert.Equal(t, uint64(0x0102030405060708), getUint64(b64))

	b16 := make([]byte, 2)
	putUint16(b16, 0xBEEF)
	assert.Equal(t, uint16(0xBEEF), getUint16(b16))
}
