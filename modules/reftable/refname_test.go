// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateReferenceNameAccepts(t *testing.T) {
	for _, name := range []string{
		"HEAD",
		"refs/heads/master",
		"refs/heads/feature/foo",
		"refs/tags/v1.0.0",
	} {
		assert.True(t, ValidateReferenceName(name), "expected %q to be valid", name)
	}
}

func TestValidateReferenceNameRejects(t *testing.T) {
	for _, name := range []string{
		"",
		"@",
		"/refs/heads/master",
		"refs/heads/master/",
		"refs/heads//master",
		"refs/heads/.foo",
		"refs/heads/foo.",
		"refs/heads/foo.lock",
		"refs/heads/master@{upstream}",
		"refs/heads/.",
		"refs/heads/..",
		"refs/heads/foo bar",
		"refs/heads/foo~bar",
		"refs/heads/foo^bar",
		"refs/heads/foo:bar",
		"refs/heads/foo?bar",
		"refs/heads/foo*bar",
		"refs/heads/foo[bar",
		"refs/heads/foo\\bar",
		"refs/heads/foo\x01bar",
	} {
		assert.False(t, ValidateReferenceName(name), "expected %q to be invalid", name)
	}
}
