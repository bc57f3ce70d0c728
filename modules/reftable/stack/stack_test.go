// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antgroup/reftable/modules/reftable"
)

func oidFor(b byte) reftable.ObjectID {
	id, err := reftable.NewObjectID("0000000000000000000000000000000000000000")
	if err != nil {
		panic(err)
	}
	id[0] = b
	return id
}

func TestStackAddAndMerged(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Add(1, 1, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/master", Type: reftable.RefDirect, Value: oidFor(1)})
	})
	require.NoError(t, err)

	_, err = s.Add(2, 2, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/master", Type: reftable.RefDirect, Value: oidFor(2)})
	})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())

	merged := s.Merged()
	cur, err := merged.AllRefs()
	require.NoError(t, err)
	rec, ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, oidFor(2), rec.Value)
}

func TestStackReopenPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	require.NoError(t, err)

	_, err = s.Add(1, 1, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/a", Type: reftable.RefDirect, Value: oidFor(1)})
	})
	require.NoError(t, err)
	_, err = s.Add(2, 2, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/b", Type: reftable.RefDirect, Value: oidFor(2)})
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(context.Background(), dir)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 2, reopened.Len())
	assert.Equal(t, s.Sizes(), reopened.Sizes())
}

func TestStackCompactAll(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Add(1, 1, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/a", Type: reftable.RefDirect, Value: oidFor(1)})
	})
	require.NoError(t, err)
	_, err = s.Add(2, 2, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/a", Type: reftable.RefDeletion})
	})
	require.NoError(t, err)
	_, err = s.Add(3, 3, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/b", Type: reftable.RefDirect, Value: oidFor(3)})
	})
	require.NoError(t, err)

	require.NoError(t, s.CompactAll())
	assert.Equal(t, 1, s.Len())

	merged := s.Merged()
	cur, err := merged.AllRefs()
	require.NoError(t, err)
	var names []string
	for {
		rec, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, rec.Name)
	}
	// The tombstone for refs/heads/a is dropped by a whole-stack compaction.
	assert.Equal(t, []string{"refs/heads/b"}, names)
}

func TestStackMidStackCompactionKeepsShadowingTombstone(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Add(1, 1, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/master", Type: reftable.RefDirect, Value: oidFor(1)})
	})
	require.NoError(t, err)
	_, err = s.Add(2, 2, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/master", Type: reftable.RefDeletion})
	})
	require.NoError(t, err)
	_, err = s.Add(3, 3, func(w *reftable.Writer) error {
		return w.AddRef(&reftable.RefRecord{Name: "refs/heads/next", Type: reftable.RefDirect, Value: oidFor(3)})
	})
	require.NoError(t, err)

	s.mu.Lock()
	err = s.compactSuffixLocked(1)
	s.mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	merged := s.Merged()
	cur, err := merged.AllRefs()
	require.NoError(t, err)
	var got []reftable.RefRecord
	for {
		rec, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, rec)
	}
	// refs/heads/master must stay a tombstone: dropping it here would
	// resurrect the refs/heads/master->1 ref still held in table 0.
	require.Len(t, got, 1)
	assert.Equal(t, "refs/heads/next", got[0].Name)

	merged.SetIncludeDeletes(true)
	cur, err = merged.AllRefs()
	require.NoError(t, err)
	got = nil
	for {
		rec, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, rec)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "refs/heads/master", got[0].Name)
	assert.True(t, got[0].IsTombstone())
	assert.Equal(t, "refs/heads/next", got[1].Name)
}
