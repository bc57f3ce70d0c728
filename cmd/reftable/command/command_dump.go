// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"os"

	"github.com/antgroup/reftable/modules/reftable"
)

// Dump prints every ref (and optionally every log entry) of one reftable
// file in key order.
type Dump struct {
	Path           string `arg:"" help:"Path to a reftable file"`
	Logs           bool   `name:"logs" help:"Also dump the log section"`
	IncludeDeletes bool   `name:"include-deletes" help:"Surface tombstone records instead of hiding them"`
}

func (c *Dump) Run(g *Globals) error {
	g.configureLogging()
	src, err := reftable.OpenFileSource(c.Path)
	if err != nil {
		return fmt.Errorf("reftable: open %s: %w", c.Path, err)
	}
	r, err := reftable.Open(src)
	if err != nil {
		return fmt.Errorf("reftable: parse %s: %w", c.Path, err)
	}
	defer r.Close()
	r.SetIncludeDeletes(c.IncludeDeletes)

	cur, err := r.AllRefs()
	if err != nil {
		return fmt.Errorf("reftable: scan refs: %w", err)
	}
	for {
		rec, ok, err := cur.Next()
		if err != nil {
			return fmt.Errorf("reftable: read ref: %w", err)
		}
		if !ok {
			break
		}
		printRef(os.Stdout, rec)
	}

	if !c.Logs {
		return nil
	}
	logCur, err := r.AllLogs()
	if err != nil {
		return fmt.Errorf("reftable: scan logs: %w", err)
	}
	for {
		rec, ok, err := logCur.Next()
		if err != nil {
			return fmt.Errorf("reftable: read log: %w", err)
		}
		if !ok {
			break
		}
		printLog(os.Stdout, rec)
	}
	return nil
}

func printRef(w *os.File, rec reftable.RefRecord) {
	switch rec.Type {
	case reftable.RefDeletion:
		fmt.Fprintf(w, "%s -\n", rec.Name)
	case reftable.RefDirect:
		fmt.Fprintf(w, "%s %s\n", rec.Name, rec.Value)
	case reftable.RefPeeledTag:
		fmt.Fprintf(w, "%s %s %s\n", rec.Name, rec.Value, rec.Peeled)
	case reftable.RefSymbolic:
		fmt.Fprintf(w, "%s -> %s\n", rec.Name, rec.Target)
	}
}

func printLog(w *os.File, rec reftable.LogRecord) {
	fmt.Fprintf(w, "%s %d %s %s <%s> %d %s\n",
		rec.RefName, rec.Time, rec.Old, rec.New, rec.Email, rec.TZOffset, rec.Message)
}
