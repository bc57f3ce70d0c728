// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileConfigMissingFile(t *testing.T) {
	cfg, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Zero(t, cfg.BlockSize)
	assert.False(t, cfg.IndexObjects)
}

func TestLoadFileConfigParsesToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reftable.toml")
	contents := "block_size = 8192\nrestart_interval = 32\nindex_objects = true\ncompaction_factor = 2.5\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8192, cfg.BlockSize)
	assert.Equal(t, 32, cfg.RestartInterval)
	assert.True(t, cfg.IndexObjects)
	assert.Equal(t, 2.5, cfg.CompactionFactor)
}

func TestGlobalsFileConfigCaches(t *testing.T) {
	g := &Globals{Config: filepath.Join(t.TempDir(), "missing.toml")}
	cfg1, err := g.FileConfig()
	require.NoError(t, err)
	cfg2, err := g.FileConfig()
	require.NoError(t, err)
	assert.Same(t, cfg1, cfg2)
}
