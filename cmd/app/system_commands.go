package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/ordersaga/cmd/app/commands"
)

func getSystemCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunMigrations()
			},
		},
		{
			Name:  "seed-inventory",
			Usage: "Seed the inventory lines with initial stock",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunSeedInventory(ctx)
			},
		},
		{
			Name:  "list-dead-letters",
			Usage: "List outbox messages that exhausted their delivery attempts",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   50,
					Usage:   "Maximum number of messages to list",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunListDeadLetters(ctx, int(cmd.Int("limit")), commands.DefaultIO())
			},
		},
	}
}
