// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package command implements the reftable CLI's subcommands (C13).
package command

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Globals are the flags shared by every subcommand.
type Globals struct {
	Verbose bool   `short:"V" name:"verbose" help:"Make the operation more talkative"`
	Config  string `name:"config" default:"reftable.toml" help:"Path to an optional TOML file of writer/stack defaults"`
	NoColor bool   `name:"no-color" help:"Disable ANSI colors in progress output"`

	cfg *FileConfig
}

// FileConfig lazily loads and caches g.Config, returning the zero-value
// FileConfig when the file does not exist.
func (g *Globals) FileConfig() (*FileConfig, error) {
	if g.cfg != nil {
		return g.cfg, nil
	}
	cfg, err := LoadFileConfig(g.Config)
	if err != nil {
		return nil, fmt.Errorf("reftable: load %s: %w", g.Config, err)
	}
	g.cfg = cfg
	return cfg, nil
}

// Colorized reports whether progress output should use ANSI colors.
func (g *Globals) Colorized() bool {
	return !g.NoColor && isatty.IsTerminal(os.Stderr.Fd())
}

func (g *Globals) configureLogging() {
	if g.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.SetLevel(logrus.InfoLevel)
}
