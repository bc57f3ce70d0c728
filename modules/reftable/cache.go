// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// cachingSource decorates another BlockSource with a cost-bounded
// read-through cache of decoded block bytes, keyed by (offset, length)
// (§4.12). It changes no on-disk bytes and no cursor semantics, only
// redundant I/O; the underlying source remains the source of truth.
type cachingSource struct {
	inner BlockSource
	cache *ristretto.Cache[cacheKey, []byte]
}

type cacheKey struct {
	off int64
	n   int
}

// NewCachingSource wraps inner with an in-memory block cache of roughly
// maxCostBytes total size. Neither the CLI nor the stack package wraps its
// sources with it; only the tests call it.
func NewCachingSource(inner BlockSource, maxCostBytes int64) (BlockSource, error) {
	c, err := ristretto.NewCache(&ristretto.Config[cacheKey, []byte]{
		NumCounters: maxCostBytes / 64 * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("reftable: create block cache: %w", err)
	}
	return &cachingSource{inner: inner, cache: c}, nil
}

func (c *cachingSource) ReadAt(p []byte, off int64) (int, error) {
	key := cacheKey{off: off, n: len(p)}
	if v, ok := c.cache.Get(key); ok && len(v) == len(p) {
		return copy(p, v), nil
	}
	n, err := c.inner.ReadAt(p, off)
	if n > 0 {
		cp := append([]byte(nil), p[:n]...)
		c.cache.Set(key, cp, int64(n))
	}
	return n, err
}

func (c *cachingSource) Size() (int64, error) {
	return c.inner.Size()
}

func (c *cachingSource) Close() error {
	c.cache.Close()
	return c.inner.Close()
}
