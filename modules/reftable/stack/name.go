// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package stack implements the ordered-table stack and compactor (C10) over
// the reftable block format, persisting membership in a small text
// manifest (§6.4).
package stack

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

// nameRe matches `0x<min>-0x<max>-<suffix>.ref` table file names (§6.4).
var nameRe = regexp.MustCompile(`^0x([0-9a-f]{12,16})-0x([0-9a-f]{12,16})-([0-9A-Za-z]{8})\.ref$`)

// Name is one table file's parsed identity: the update-index range it
// covers and its disambiguating suffix.
type Name struct {
	Min, Max uint64
	Suffix   string
}

// String renders the canonical on-disk file name for n.
func (n Name) String() string {
	return fmt.Sprintf("0x%012x-0x%012x-%s.ref", n.Min, n.Max, n.Suffix)
}

// ParseName parses a table file name produced by String.
func ParseName(s string) (Name, error) {
	m := nameRe.FindStringSubmatch(s)
	if m == nil {
		return Name{}, fmt.Errorf("reftable/stack: %q is not a valid table file name", s)
	}
	var min, max uint64
	if _, err := fmt.Sscanf(m[1], "%x", &min); err != nil {
		return Name{}, fmt.Errorf("reftable/stack: bad min-update-index in %q: %w", s, err)
	}
	if _, err := fmt.Sscanf(m[2], "%x", &max); err != nil {
		return Name{}, fmt.Errorf("reftable/stack: bad max-update-index in %q: %w", s, err)
	}
	return Name{Min: min, Max: max, Suffix: m[3]}, nil
}

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newSuffix generates an 8-character random disambiguator.
func newSuffix() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reftable/stack: generate table suffix: %w", err)
	}
	out := make([]byte, 8)
	for i, b := range buf {
		out[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(out), nil
}

// NewName builds a fresh Name for a table covering [min, max] with a newly
// generated random suffix.
func NewName(min, max uint64) (Name, error) {
	suffix, err := newSuffix()
	if err != nil {
		return Name{}, err
	}
	return Name{Min: min, Max: max, Suffix: suffix}, nil
}
