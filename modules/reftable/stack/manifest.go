// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// manifestFile is the well-known name of a stack's membership list.
const manifestFile = "tables.list"

// readManifest returns the table file names recorded in dir's manifest,
// oldest first. A missing manifest is treated as an empty stack.
func readManifest(dir string) ([]string, error) {
	path := filepath.Join(dir, manifestFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reftable/stack: open manifest %s: %w", path, err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reftable/stack: read manifest %s: %w", path, err)
	}
	return names, nil
}

// writeManifest atomically replaces dir's manifest with names, oldest
// first, via write-to-temp then rename (§5: shared-resource policy).
func writeManifest(dir string, names []string) error {
	path := filepath.Join(dir, manifestFile)
	tmp, err := os.CreateTemp(dir, manifestFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("reftable/stack: create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			tmp.Close()
			return fmt.Errorf("reftable/stack: write temp manifest: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("reftable/stack: flush temp manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("reftable/stack: sync temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("reftable/stack: close temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("reftable/stack: replace manifest %s: %w", path, err)
	}
	return nil
}
