package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/envelope/cmd/app/commands"
	"github.com/allisson/envelope/internal/app"
	"github.com/allisson/envelope/internal/config"
)

func getEnvelopeCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "Encrypt data under the current version of a key and print the base64 envelope",
			Flags: []cli.Flag{
				keyNameFlag(),
				&cli.StringFlag{
					Name:     "data",
					Required: true,
					Usage:    "Plaintext to encrypt",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				envelopeUseCase, err := container.EnvelopeUseCase()
				if err != nil {
					return err
				}

				return commands.RunEncrypt(
					ctx,
					envelopeUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("data"),
				)
			},
		},
		{
			Name:  "decrypt",
			Usage: "Decrypt a base64 envelope",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "blob",
					Aliases:  []string{"b"},
					Required: true,
					Usage:    "Base64 encoded envelope",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				envelopeUseCase, err := container.EnvelopeUseCase()
				if err != nil {
					return err
				}

				return commands.RunDecrypt(
					ctx,
					envelopeUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("blob"),
				)
			},
		},
		{
			Name:  "encrypt-stored-iv",
			Usage: "Encrypt data with a caller held secret, prefixing the random IV",
			Flags: []cli.Flag{
				keyNameFlag(),
				&cli.StringFlag{
					Name:     "secret",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Base64 encoded 32 byte secret",
				},
				&cli.StringFlag{
					Name:     "data",
					Required: true,
					Usage:    "Plaintext to encrypt",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunEncryptStoredIV(
					container.EncryptionProcessor(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("secret"),
					cmd.String("data"),
				)
			},
		},
		{
			Name:  "decrypt-stored-iv",
			Usage: "Decrypt a blob produced by encrypt-stored-iv",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "secret",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Base64 encoded 32 byte secret",
				},
				&cli.StringFlag{
					Name:     "blob",
					Aliases:  []string{"b"},
					Required: true,
					Usage:    "Base64 encoded IV and ciphertext",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunDecryptStoredIV(
					container.EncryptionProcessor(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("secret"),
					cmd.String("blob"),
				)
			},
		},
	}
}
