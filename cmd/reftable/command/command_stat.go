// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"os"

	"github.com/antgroup/reftable/modules/reftable"
)

// Stat prints a reftable file's header/footer fields and section layout.
type Stat struct {
	Path string `arg:"" help:"Path to a reftable file"`
}

func (c *Stat) Run(g *Globals) error {
	g.configureLogging()
	fi, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("reftable: stat %s: %w", c.Path, err)
	}
	src, err := reftable.OpenFileSource(c.Path)
	if err != nil {
		return fmt.Errorf("reftable: open %s: %w", c.Path, err)
	}
	r, err := reftable.Open(src)
	if err != nil {
		return fmt.Errorf("reftable: parse %s: %w", c.Path, err)
	}
	defer r.Close()

	fmt.Printf("file:              %s\n", c.Path)
	fmt.Printf("size:              %d bytes\n", fi.Size())
	fmt.Printf("min-update-index:  %d\n", r.MinUpdateIndex())
	fmt.Printf("max-update-index:  %d\n", r.MaxUpdateIndex())

	refs := 0
	cur, err := r.AllRefs()
	if err != nil {
		return fmt.Errorf("reftable: scan refs: %w", err)
	}
	for {
		_, ok, err := cur.Next()
		if err != nil {
			return fmt.Errorf("reftable: read ref: %w", err)
		}
		if !ok {
			break
		}
		refs++
	}
	fmt.Printf("refs:              %d\n", refs)
	fmt.Printf("disk seeks:        %d\n", r.EstimatedDiskSeeks())
	return nil
}
