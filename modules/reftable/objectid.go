// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// ObjectIDSize is the fixed on-disk width of an ObjectID: this format
// always stamps SHA-1 object ids, never SHA-256.
const ObjectIDSize = 20

// ObjectID is a SHA-1 object id as stored inline in ref and log records.
type ObjectID [ObjectIDSize]byte

// ZeroOID is the all-zero object id used to mark an absent peeled id or an
// absent old/new id in a reflog entry.
var ZeroOID ObjectID

// IsZero reports whether id is the all-zero sentinel.
func (id ObjectID) IsZero() bool {
	return id == ZeroOID
}

func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

// NewObjectID parses a 40-character hex string into an ObjectID.
func NewObjectID(hexStr string) (ObjectID, error) {
	var id ObjectID
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return id, fmt.Errorf("reftable: bad object id %q: %w", hexStr, err)
	}
	if len(b) != ObjectIDSize {
		return id, fmt.Errorf("reftable: bad object id %q: want %d bytes, got %d", hexStr, ObjectIDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// HashObjectID computes the SHA-1 of data. The format is SHA-1-only;
// there is no SHA-256 variant.
func HashObjectID(data []byte) ObjectID {
	return ObjectID(sha1.Sum(data))
}
