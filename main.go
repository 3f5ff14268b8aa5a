// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

// Command nugetd is a server-side NuGet package repository: it accepts
// .nupkg pushes and serves the NuGet v3 metadata and content endpoints.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tobyv/nugetd/pkg/cliutil"
)

var argparser = &cobra.Command{
	Use:   "nugetd {[flags]|SUBCOMMAND...}",
	Short: "Serve a NuGet package repository",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,

	SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
	SilenceUsage:  true, // our FlagErrorFunc will handle it
}

func init() {
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
}

func main() {
	ctx := context.Background()

	if err := argparser.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(argparser.ErrOrStderr(), "%s: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}
