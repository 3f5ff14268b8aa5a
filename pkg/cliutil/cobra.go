// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

// Package cliutil is glue for consistent cobra usage-error behavior.
package cliutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// OnlySubcommands is a cobra.PositionalArgs for commands that only dispatch
// to subcommands; it is cobra.NoArgs with a friendlier message.
func OnlySubcommands(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	err := fmt.Errorf("invalid subcommand %q", args[0])
	if suggestions := cmd.SuggestionsFor(args[0]); len(suggestions) > 0 {
		err = fmt.Errorf("%w\nDid you mean one of these?\n\t%s", err, strings.Join(suggestions, "\n\t"))
	}
	return cmd.FlagErrorFunc()(cmd, err)
}

// RunSubcommands is a cobra.Command.RunE for commands that only dispatch to
// subcommands.  Running the bare command is a usage error, not a success, so
// it prints help and exits 2.
func RunSubcommands(cmd *cobra.Command, args []string) error {
	cmd.SetOutput(cmd.ErrOrStderr())
	cmd.HelpFunc()(cmd, args)
	os.Exit(2)
	return nil
}

// FlagErrorFunc is for (*cobra.Command).SetFlagErrorFunc; it reports usage
// errors in the GNU style and exits 2, so that every error that
// (*cobra.Command).Execute returns is an execution error rather than a usage
// error.
func FlagErrorFunc(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\nSee '%s --help' for more information.\n",
		cmd.CommandPath(), strings.TrimRight(err.Error(), "\n"), cmd.CommandPath())
	os.Exit(2)
	return nil
}

// WrapPositionalArgs routes a cobra.PositionalArgs' errors through
// FlagErrorFunc.
func WrapPositionalArgs(inner cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return FlagErrorFunc(cmd, inner(cmd, args))
	}
}
