// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeIndexValue(t *testing.T) {
	buf := encodeIndexValue(123456)
	got, err := decodeIndexValue(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), got)
}

func TestDecodeIndexValueTruncated(t *testing.T) {
	_, err := decodeIndexValue(nil)
	assert.Error(t, err)
}

func TestBuildIndexLevelSingleBlock(t *testing.T) {
	entries := []indexEntry{
		{lastKey: []byte("refs/heads/a"), offset: 0},
		{lastKey: []byte("refs/heads/b"), offset: 4096},
	}
	blocks, err := buildIndexLevel(entries, 4096, 16)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].entryCount)
}

func TestBuildIndexLevelSpansMultipleBlocks(t *testing.T) {
	var entries []indexEntry
	for i := 0; i < 50; i++ {
		entries = append(entries, indexEntry{lastKey: []byte("refs/heads/branch-name-padding-0123456789"), offset: uint64(i * 4096)})
	}
	blocks, err := buildIndexLevel(entries, 256, 16)
	require.NoError(t, err)
	assert.Greater(t, len(blocks), 1)
}

func TestBuildIndexLevelEmpty(t *testing.T) {
	blocks, err := buildIndexLevel(nil, 4096, 16)
	require.NoError(t, err)
	assert.Nil(t, blocks)
}
