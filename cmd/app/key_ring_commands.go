package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/envelope/cmd/app/commands"
	"github.com/allisson/envelope/internal/app"
	"github.com/allisson/envelope/internal/config"
)

func getKeyRingCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-key-ring",
			Usage: "Create a key ring holding version 1 of a new key name",
			Flags: []cli.Flag{
				keyNameFlag(),
				&cli.StringFlag{
					Name:    "description",
					Aliases: []string{"d"},
					Usage:   "Human-readable description",
				},
				&cli.DurationFlag{
					Name:  "ttl",
					Usage: "Key lifetime (e.g., 720h). Zero uses KEY_DEFAULT_TTL",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				keyRingUseCase, err := container.KeyRingUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateKeyRing(
					ctx,
					keyRingUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("description"),
					cmd.Duration("ttl"),
				)
			},
		},
		{
			Name:  "rotate-key-ring",
			Usage: "Add a new current version to a key ring",
			Flags: []cli.Flag{keyNameFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				keyRingUseCase, err := container.KeyRingUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotateKeyRing(
					ctx,
					keyRingUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
				)
			},
		},
		{
			Name:  "retire-key-ring",
			Usage: "Stop a key ring from encrypting while keeping it for decryption",
			Flags: []cli.Flag{keyNameFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				keyRingUseCase, err := container.KeyRingUseCase()
				if err != nil {
					return err
				}

				return commands.RunRetireKeyRing(
					ctx,
					keyRingUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
				)
			},
		},
		{
			Name:  "list-key-rings",
			Usage: "List every key ring and its versions",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				keyRingUseCase, err := container.KeyRingUseCase()
				if err != nil {
					return err
				}

				return commands.RunListKeyRings(
					ctx,
					keyRingUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
