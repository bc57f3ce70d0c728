// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOID(t *testing.T, s string) ObjectID {
	t.Helper()
	id, err := NewObjectID(s)
	require.NoError(t, err)
	return id
}

func TestRefRecordEncodeDecodeDeletion(t *testing.T) {
	r := RefRecord{Name: "refs/heads/master", Type: RefDeletion}
	require.NoError(t, r.validate())
	buf := r.encodeValue(nil)
	assert.Empty(t, buf)
	got, n, err := decodeRefValue(r.Name, RefDeletion, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.True(t, got.IsTombstone())
}

func TestRefRecordEncodeDecodeDirect(t *testing.T) {
	oid := mustOID(t, "aabbccddeeff00112233445566778899aabbccdd")
	r := RefRecord{Name: "refs/heads/master", Type: RefDirect, Value: oid}
	require.NoError(t, r.validate())
	buf := r.encodeValue(nil)
	got, n, err := decodeRefValue(r.Name, RefDirect, buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, oid, got.Value)
}

func TestRefRecordEncodeDecodePeeledTag(t *testing.T) {
	oid := mustOID(t, "aabbccddeeff00112233445566778899aabbccdd")
	peeled := mustOID(t, "111111111111111111111111111111111111111d")
	r := RefRecord{Name: "refs/tags/v1", Type: RefPeeledTag, Value: oid, Peeled: peeled}
	require.NoError(t, r.validate())
	buf := r.encodeValue(nil)
	got, n, err := decodeRefValue(r.Name, RefPeeledTag, buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, oid, got.Value)
	assert.Equal(t, peeled, got.Peeled)
}

func TestRefRecordPeeledTagRequiresPeeled(t *testing.T) {
	r := RefRecord{Name: "refs/tags/v1", Type: RefPeeledTag}
	assert.Error(t, r.validate())
}

func TestRefRecordEncodeDecodeSymbolic(t *testing.T) {
	r := RefRecord{Name: "HEAD", Type: RefSymbolic, Target: "refs/heads/master"}
	require.NoError(t, r.validate())
	buf := r.encodeValue(nil)
	got, n, err := decodeRefValue(r.Name, RefSymbolic, buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, "refs/heads/master", got.Target)
}

func TestRefRecordSymbolicRejectsBadTarget(t *testing.T) {
	r := RefRecord{Name: "HEAD", Type: RefSymbolic, Target: "refs/heads/.bad"}
	assert.Error(t, r.validate())
}

func TestRefRecordDecodeTruncated(t *testing.T) {
	_, _, err := decodeRefValue("refs/heads/master", RefDirect, []byte{1, 2, 3})
	assert.Error(t, err)
	_, _, err = decodeRefValue("refs/tags/v1", RefPeeledTag, make([]byte, ObjectIDSize))
	assert.Error(t, err)
}

func TestLogRecordKeyReverseTime(t *testing.T) {
	older := LogRecord{RefName: "refs/heads/master", Time: 100}
	newer := LogRecord{RefName: "refs/heads/master", Time: 200}
	// Newer entries must sort before older ones within the same ref, since
	// keys order ascending and the time component is stored reversed.
	assert.Less(t, string(newer.Key()), string(older.Key()))
}

func TestSplitLogKeyRoundTrip(t *testing.T) {
	l := LogRecord{RefName: "refs/heads/master", Time: 123456}
	refName, tm, err := splitLogKey(l.Key())
	require.NoError(t, err)
	assert.Equal(t, l.RefName, refName)
	assert.Equal(t, l.Time, tm)
}

func TestSplitLogKeyMalformed(t *testing.T) {
	_, _, err := splitLogKey([]byte("no-nul-terminator"))
	assert.Error(t, err)
}

func TestLogRecordEncodeDecodeValue(t *testing.T) {
	l := LogRecord{
		RefName:    "refs/heads/master",
		Time:       1700000000,
		Old:        mustOID(t, "000000000000000000000000000000000000000d"),
		New:        mustOID(t, "111111111111111111111111111111111111111d"),
		TZOffset:   -420,
		AuthorName: "Jane Doe",
		Email:      "jane@example.com",
		Message:    "commit: something",
	}
	buf := l.encodeValue(nil)
	got, n, err := decodeLogValue(l.RefName, l.Time, buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, l.Old, got.Old)
	assert.Equal(t, l.New, got.New)
	assert.Equal(t, l.TZOffset, got.TZOffset)
	assert.Equal(t, l.AuthorName, got.AuthorName)
	assert.Equal(t, l.Email, got.Email)
	assert.Equal(t, l.Message, got.Message)
}

func TestLogRecordEncodeDecodeEmptyStrings(t *testing.T) {
	l := LogRecord{RefName: "refs/heads/master", Time: 1}
	buf := l.encodeValue(nil)
	got, n, err := decodeLogValue(l.RefName, l.Time, buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Empty(t, got.AuthorName)
	assert.Empty(t, got.Email)
	assert.Empty(t, got.Message)
}

func TestLogRecordDecodeTruncated(t *testing.T) {
	_, _, err := decodeLogValue("refs/heads/master", 1, []byte{1, 2, 3})
	assert.Error(t, err)
}
