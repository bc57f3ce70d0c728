// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/alecthomas/kong"

	"github.com/antgroup/reftable/cmd/reftable/command"
	"github.com/antgroup/reftable/pkg/version"
)

type app struct {
	command.Globals
	Write   command.Write   `cmd:"" help:"Write a reftable file from a line-oriented ref spec"`
	Dump    command.Dump    `cmd:"" help:"Print the contents of a reftable file"`
	Stat    command.Stat    `cmd:"" help:"Print header/footer fields and section counts"`
	Stack   command.Stack   `cmd:"" help:"Operate on a stack directory (dump, compact)"`
	Verify  command.Verify  `cmd:"" help:"Scan a table or stack end to end and report the first error"`
	Version command.Version `cmd:"" help:"Display version information"`
}

func main() {
	var app app
	ctx := kong.Parse(&app,
		kong.Name("reftable"),
		kong.Description("reftable - read, write, and compact Git reftable stacks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{
			"version": version.GetVersionString(),
		},
	)
	err := ctx.Run(&app.Globals)
	ctx.FatalIfErrorf(err)
}
