// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/antgroup/reftable/modules/reftable/stack"
)

// Stack groups the stack-level subcommands.
type Stack struct {
	Dump    StackDump    `cmd:"" help:"Print the merged view of a stack"`
	Compact StackCompact `cmd:"" help:"Run (or force) the geometric compaction policy"`
}

// StackDump prints the merged, deduplicated ref (and optionally log) view
// of every table named in a stack's manifest.
type StackDump struct {
	Dir            string `arg:"" help:"Stack directory containing tables.list"`
	Logs           bool   `name:"logs" help:"Also dump the merged log view"`
	IncludeDeletes bool   `name:"include-deletes" help:"Surface tombstones instead of hiding them"`
}

func (c *StackDump) Run(g *Globals) error {
	g.configureLogging()
	s, err := stack.Open(context.Background(), c.Dir)
	if err != nil {
		return fmt.Errorf("reftable: open stack %s: %w", c.Dir, err)
	}
	defer s.Close()

	merged := s.Merged()
	merged.SetIncludeDeletes(c.IncludeDeletes)

	cur, err := merged.AllRefs()
	if err != nil {
		return err
	}
	for {
		rec, ok, err := cur.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		printRef(os.Stdout, rec)
	}
	if !c.Logs {
		return nil
	}
	logCur, err := merged.AllLogs()
	if err != nil {
		return err
	}
	for {
		rec, ok, err := logCur.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		printLog(os.Stdout, rec)
	}
	return nil
}

// StackCompact runs the stack's geometric compaction policy, or merges the
// whole stack into one table with --all.
type StackCompact struct {
	Dir string `arg:"" help:"Stack directory containing tables.list"`
	All bool   `name:"all" help:"Merge the whole stack regardless of the geometric policy"`
}

func (c *StackCompact) Run(g *Globals) error {
	g.configureLogging()
	s, err := stack.Open(context.Background(), c.Dir)
	if err != nil {
		return fmt.Errorf("reftable: open stack %s: %w", c.Dir, err)
	}
	defer s.Close()

	before := s.Sizes()
	if c.All {
		if err := s.CompactAll(); err != nil {
			logrus.Errorf("reftable stack compact %s: %v", c.Dir, err)
			return err
		}
	} else {
		ran, err := s.Compact()
		if err != nil {
			logrus.Errorf("reftable stack compact %s: %v", c.Dir, err)
			return err
		}
		if !ran {
			fmt.Println("no compaction needed")
			return nil
		}
	}
	after := s.Sizes()
	logrus.Infof("reftable stack compact %s: %d tables -> %d tables", c.Dir, len(before), len(after))
	fmt.Printf("compacted: %d tables -> %d tables\n", len(before), len(after))
	return nil
}
