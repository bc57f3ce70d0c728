// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig is the optional `reftable.toml` shape (§AMBIENT/§DOMAIN):
// writer/stack defaults that the CLI applies on top of the package's
// built-in defaults, before command-line flags override them.
// CompactionFactor is decoded but not applied: stack compaction always uses
// the factor 2 built into stack.PlanCompaction.
type FileConfig struct {
	BlockSize        int     `toml:"block_size"`
	RestartInterval  int     `toml:"restart_interval"`
	IndexObjects     bool    `toml:"index_objects"`
	CompactionFactor float64 `toml:"compaction_factor"`
}

// LoadFileConfig reads path if it exists. A missing file is not an error;
// its absence simply leaves every field at its zero value.
func LoadFileConfig(path string) (*FileConfig, error) {
	var cfg FileConfig
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
