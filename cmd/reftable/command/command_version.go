// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"

	"github.com/antgroup/reftable/pkg/version"
)

// Version prints build version information.
type Version struct{}

func (c *Version) Run(g *Globals) error {
	fmt.Println(version.GetVersionString())
	if g.Verbose {
		fmt.Printf("version: %s\ncommit:  %s\nbuilt:   %s\n", version.GetVersion(), version.GetBuildCommit(), version.GetBuildTime())
	}
	return nil
}
