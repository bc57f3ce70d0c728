// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanCompactionNoCandidateBelowTwoTables(t *testing.T) {
	_, ok := PlanCompaction(nil)
	assert.False(t, ok)
	_, ok = PlanCompaction([]int64{100})
	assert.False(t, ok)
}

func TestPlanCompactionExtendsWhileWithinGeometricBound(t *testing.T) {
	// Newest table (last) is 10; the one before it is 20, and 10 <= 2*20,
	// so the suffix extends to include it. The next one before that is
	// 100, and 10+20=30 <= 2*100, so it extends again. Before that is 5:
	// 30+100=130 > 2*5=10, so it stops there.
	sizes := []int64{5, 100, 20, 10}
	start, ok := PlanCompaction(sizes)
	assert.True(t, ok)
	assert.Equal(t, 1, start)
}

func TestPlanCompactionNoQualifyingSuffix(t *testing.T) {
	// Newest table dwarfs everything before it: no suffix of length >= 2
	// stays within twice the preceding table's size.
	sizes := []int64{1, 1, 1, 1000}
	_, ok := PlanCompaction(sizes)
	assert.False(t, ok)
}

func TestPlanCompactionWholeStackQualifies(t *testing.T) {
	sizes := []int64{100, 100, 100}
	start, ok := PlanCompaction(sizes)
	assert.True(t, ok)
	assert.Equal(t, 0, start)
}
