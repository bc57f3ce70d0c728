// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"bytes"
	"hash/crc32"
)

// FooterSize is the fixed width of the file footer: a 24-byte copy of the
// header, five 8-byte offset/size fields, and a trailing 4-byte CRC32 that
// covers footer bytes 32..64 (the four fields after the ref-index offset),
// not the header copy or the ref-index offset. An empty table
// is exactly HeaderSize+FooterSize = 92 bytes. See DESIGN.md for how this
// layout was pinned down.
const FooterSize = 68

// Footer is the last 68 bytes of a reftable file.
type Footer struct {
	Header         Header
	RefIndexOffset uint64
	ObjIndexOffset uint64
	LogOffset      uint64
	LogIndexOffset uint64
	FileSize       uint64
	CRC32          uint32
}

func (f Footer) encode() []byte {
	buf := make([]byte, FooterSize)
	copy(buf[0:24], f.Header.encode())
	putUint64(buf[24:32], f.RefIndexOffset)
	putUint64(buf[32:40], f.ObjIndexOffset)
	putUint64(buf[40:48], f.LogOffset)
	putUint64(buf[48:56], f.LogIndexOffset)
	putUint64(buf[56:64], f.FileSize)
	crc := crc32.ChecksumIEEE(buf[32:64])
	putUint32(buf[64:68], crc)
	return buf
}

func decodeFooter(buf []byte, fileOffset int64) (Footer, error) {
	var f Footer
	if len(buf) != FooterSize {
		return f, &ErrMalformedFooter{Reason: "truncated footer", Offset: fileOffset}
	}
	h, err := decodeHeader(buf[0:24])
	if err != nil {
		return f, &ErrMalformedFooter{Reason: err.Error(), Offset: fileOffset}
	}
	f.Header = h
	f.RefIndexOffset = getUint64(buf[24:32])
	f.ObjIndexOffset = getUint64(buf[32:40])
	f.LogOffset = getUint64(buf[40:48])
	f.LogIndexOffset = getUint64(buf[48:56])
	f.FileSize = getUint64(buf[56:64])
	f.CRC32 = getUint32(buf[64:68])

	want := crc32.ChecksumIEEE(buf[32:64])
	if want != f.CRC32 {
		return f, &ErrMalformedFooter{
			Reason:      "crc mismatch",
			Offset:      fileOffset,
			ExpectedCRC: want,
			GotCRC:      f.CRC32,
		}
	}
	return f, nil
}

// headersEqual cross-checks the leading header copy embedded in the footer
// against the file's real leading header, in lieu of covering it with the
// footer's own CRC (see FooterSize commentary).
func headersEqual(a, b Header) bool {
	return bytes.Equal(a.encode(), b.encode())
}
