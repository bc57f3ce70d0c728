// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameStringParseRoundTrip(t *testing.T) {
	n, err := NewName(0x1000, 0x2000)
	require.NoError(t, err)
	s := n.String()

	got, err := ParseName(s)
	require.NoError(t, err)
	assert.Equal(t, n.Min, got.Min)
	assert.Equal(t, n.Max, got.Max)
	assert.Equal(t, n.Suffix, got.Suffix)
	assert.Len(t, got.Suffix, 8)
}

func TestParseNameRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"not-a-table-name",
		"0x1-0x2-abcdefgh.ref",
		"0x000000001000-0x000000002000-short.ref",
		"0x000000001000-0x000000002000-toolongsuffix.ref",
	} {
		_, err := ParseName(s)
		assert.Error(t, err, "expected %q to be rejected", s)
	}
}

func TestNewNameGeneratesDistinctSuffixes(t *testing.T) {
	a, err := NewName(1, 2)
	require.NoError(t, err)
	b, err := NewName(1, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a.Suffix, b.Suffix)
}
