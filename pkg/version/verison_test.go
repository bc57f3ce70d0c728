// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionStringContainsProgramName(t *testing.T) {
	s := GetVersionString()
	assert.Contains(t, s, "built")
}

func TestAccessorsDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		GetVersion()
		GetBuildCommit()
		GetBuildTime()
	})
}
