// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the kinship command tree. Every command
// opens the configured store, works through a record-edit session,
// and saves the store when it changed something.
package commands

import (
	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
)

// Root builds the complete command tree over env.
func Root(env *Environment) *cli.Command {
	return &cli.Command{
		Name: "kinship",
		Description: `Kinship: genealogy record editor.

Every command edits one table through a record-edit session: changes
are validated, stamped with creation and update dates, and deleting a
record removes its notes, restrictions and other dependents.`,
		Usage: "kinship [--config FILE] [--store PATH] <command> [flags]",
		Subcommands: []*cli.Command{
			tablesCommand(env),
			listCommand(env),
			showCommand(env),
			newCommand(env),
			editCommand(env),
			deleteCommand(env),
			restrictCommand(env),
			noteCommand(env),
			linkCommand(env),
			importCommand(env),
			exportCommand(env),
			shellCommand(env),
		},
	}
}
