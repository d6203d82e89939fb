package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/ordersaga/cmd/app/commands"
)

func getServiceCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "order-service",
			Usage: "Start the order service (HTTP API, saga engine, order projection)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunOrderService(ctx, version)
			},
		},
		{
			Name:  "payment-service",
			Usage: "Start the payment service (captures and refunds payments)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunPaymentService(ctx, version)
			},
		},
		{
			Name:  "inventory-service",
			Usage: "Start the inventory service (reserves product stock)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunInventoryService(ctx, version)
			},
		},
		{
			Name:  "notification-service",
			Usage: "Start the notification service (records order confirmations)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunNotificationService(ctx, version)
			},
		},
	}
}
