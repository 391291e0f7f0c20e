package main

import (
	"github.com/urfave/cli/v3"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKeyRingCommands()...)
	cmds = append(cmds, getEnvelopeCommands()...)
	return cmds
}

func keyNameFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "name",
		Aliases:  []string{"n"},
		Required: true,
		Usage:    "Four character key name (e.g., PAYm)",
	}
}
