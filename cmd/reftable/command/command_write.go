// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/antgroup/reftable/modules/reftable"
)

// Write builds one reftable file from a line-oriented ref spec read from
// stdin or a file: `<refname> <sha1>`, `<refname> <sha1> <peeled-sha1>`,
// `<refname> -> <target>` for symbolic refs, or `<refname> -` for a
// tombstone. Blank lines and lines starting with '#' are ignored.
type Write struct {
	Output          string `arg:"" help:"Path of the reftable file to create"`
	Input           string `name:"input" short:"i" default:"-" help:"Ref spec file, or - for stdin"`
	BlockSize       int    `name:"block-size" help:"Override the configured block size"`
	RestartInterval int    `name:"restart-interval" help:"Override the configured restart interval"`
	IndexObjects    bool   `name:"index-objects" help:"Build an object-id index"`
	MinUpdateIndex  uint64 `name:"min-update-index"`
	MaxUpdateIndex  uint64 `name:"max-update-index"`
}

func (c *Write) Run(g *Globals) error {
	g.configureLogging()
	fc, err := g.FileConfig()
	if err != nil {
		return err
	}
	cfg := reftable.DefaultWriterConfig()
	if fc.BlockSize > 0 {
		cfg.BlockSize = fc.BlockSize
	}
	if fc.RestartInterval > 0 {
		cfg.RestartInterval = fc.RestartInterval
	}
	cfg.IndexObjects = fc.IndexObjects
	if c.BlockSize > 0 {
		cfg.BlockSize = c.BlockSize
	}
	if c.RestartInterval > 0 {
		cfg.RestartInterval = c.RestartInterval
	}
	if c.IndexObjects {
		cfg.IndexObjects = true
	}
	cfg.MinUpdateIndex = c.MinUpdateIndex
	cfg.MaxUpdateIndex = c.MaxUpdateIndex

	in := os.Stdin
	if c.Input != "-" {
		f, err := os.Open(c.Input)
		if err != nil {
			return fmt.Errorf("reftable: open %s: %w", c.Input, err)
		}
		defer f.Close()
		in = f
	}

	out, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("reftable: create %s: %w", c.Output, err)
	}
	defer out.Close()

	w := reftable.NewWriter(out, cfg)
	n, err := writeRefsFrom(in, w)
	if err != nil {
		return err
	}
	stats, err := w.Finish()
	if err != nil {
		logrus.Errorf("reftable write %s: finish failed: %v", c.Output, err)
		return fmt.Errorf("reftable: finish %s: %w", c.Output, err)
	}
	logrus.Infof("reftable write %s: wrote %d refs, %d bytes total", c.Output, n, stats.TotalBytes)
	fmt.Fprintf(os.Stdout, "wrote %d refs (%d ref blocks, %d bytes) to %s\n", n, stats.RefBlockCount, stats.TotalBytes, c.Output)
	return nil
}

func writeRefsFrom(r io.Reader, w *reftable.Writer) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseRefLine(line)
		if err != nil {
			return n, err
		}
		if err := w.AddRef(rec); err != nil {
			return n, fmt.Errorf("reftable: add ref from %q: %w", line, err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("reftable: read ref spec: %w", err)
	}
	return n, nil
}

func parseRefLine(line string) (*reftable.RefRecord, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("reftable: malformed ref spec line %q", line)
	}
	name := fields[0]
	switch {
	case fields[1] == "-":
		return &reftable.RefRecord{Name: name, Type: reftable.RefDeletion}, nil
	case fields[1] == "->":
		if len(fields) != 3 {
			return nil, fmt.Errorf("reftable: malformed symbolic ref spec %q", line)
		}
		return &reftable.RefRecord{Name: name, Type: reftable.RefSymbolic, Target: fields[2]}, nil
	case len(fields) == 2:
		id, err := reftable.NewObjectID(fields[1])
		if err != nil {
			return nil, fmt.Errorf("reftable: %q: %w", line, err)
		}
		return &reftable.RefRecord{Name: name, Type: reftable.RefDirect, Value: id}, nil
	case len(fields) == 3:
		id, err := reftable.NewObjectID(fields[1])
		if err != nil {
			return nil, fmt.Errorf("reftable: %q: %w", line, err)
		}
		peeled, err := reftable.NewObjectID(fields[2])
		if err != nil {
			return nil, fmt.Errorf("reftable: %q: %w", line, err)
		}
		return &reftable.RefRecord{Name: name, Type: reftable.RefPeeledTag, Value: id, Peeled: peeled}, nil
	default:
		return nil, fmt.Errorf("reftable: malformed ref spec line %q", line)
	}
}
