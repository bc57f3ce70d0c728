// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectIDRoundTrip(t *testing.T) {
	const hex = "aabbccddeeff00112233445566778899aabbccdd"
	id, err := NewObjectID(hex)
	require.NoError(t, err)
	assert.Equal(t, hex, id.String())
	assert.False(t, id.IsZero())
}

func TestObjectIDZero(t *testing.T) {
	assert.True(t, ZeroOID.IsZero())
}

func TestNewObjectIDRejectsBadInput(t *testing.T) {
	_, err := NewObjectID("not-hex")
	assert.Error(t, err)
	_, err = NewObjectID("aabb")
	assert.Error(t, err)
}

func TestHashObjectID(t *testing.T) {
	id := HashObjectID([]byte("hello"))
	assert.False(t, id.IsZero())
}
