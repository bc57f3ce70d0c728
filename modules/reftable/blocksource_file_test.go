// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFileSourceReadAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.ref")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	src, err := OpenFileSource(path)
	require.NoError(t, err)
	defer src.Close()

	size, err := src.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	buf := make([]byte, 5)
	n, err := src.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "23456", string(buf))
}

func TestOpenFileSourceEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.ref")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	src, err := OpenFileSource(path)
	require.NoError(t, err)
	defer src.Close()

	size, err := src.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}
