// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
)

func restrictCommand(env *Environment) *cli.Command {
	var on, off bool
	return &cli.Command{
		Name:    "restrict",
		Summary: "Mark a record confidential, or clear the mark",
		Description: `Mark a record confidential (--on) or not (--off).

Turning a restriction off either deletes the restriction record or
keeps it marked public, per session.restriction_off in the config.`,
		Usage: "kinship restrict TABLE ID --on|--off",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("restrict", pflag.ContinueOnError)
			flagSet.BoolVar(&on, "on", false, "mark the record confidential")
			flagSet.BoolVar(&off, "off", false, "clear the confidential mark")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship restrict TABLE ID --on|--off", "TABLE", "ID"); err != nil {
				return err
			}
			if on == off {
				return cli.WithCode(cli.ExitUsage, fmt.Errorf("give exactly one of --on and --off"))
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			err = env.withEditor(ctx, logger, args[0], true, func(_ *workspace, ed *editor) error {
				if err := ed.selectRecord(ctx, id); err != nil {
					return err
				}
				return ed.controller.ToggleRestriction(ctx, on)
			})
			if err != nil {
				return err
			}
			state := "public"
			if on {
				state = "confidential"
			}
			fmt.Fprintf(env.stdout(), "%s %d is %s\n", args[0], id, state)
			return nil
		},
	}
}
