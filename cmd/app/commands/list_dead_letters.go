package commands

import (
	"context"
	"fmt"

	"github.com/allisson/ordersaga/internal/app"
	"github.com/allisson/ordersaga/internal/config"
	outboxDomain "github.com/allisson/ordersaga/internal/outbox/domain"
)

// deadLetterLister is the slice of the relay used by the dead letter command.
type deadLetterLister interface {
	ListDead(ctx context.Context, limit int) ([]*outboxDomain.Message, error)
}

// RunListDeadLetters prints outbox messages that exhausted their delivery
// attempts, most recent first. Useful for inspecting stuck sagas before
// manual intervention.
//
// Requirements: Database must be migrated and accessible.
func RunListDeadLetters(ctx context.Context, limit int, io IOTuple) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	relay, err := container.Relay()
	if err != nil {
		return fmt.Errorf("failed to initialize relay: %w", err)
	}

	return listDeadLetters(ctx, relay, limit, io)
}

func listDeadLetters(ctx context.Context, lister deadLetterLister, limit int, io IOTuple) error {
	messages, err := lister.ListDead(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list dead letters: %w", err)
	}

	if len(messages) == 0 {
		_, _ = fmt.Fprintln(io.Writer, "No dead letters found.")
		return nil
	}

	_, _ = fmt.Fprintf(io.Writer, "Found %d dead letter(s):\n\n", len(messages))
	for _, message := range messages {
		printDeadLetter(io, message)
	}

	return nil
}

func printDeadLetter(io IOTuple, message *outboxDomain.Message) {
	_, _ = fmt.Fprintf(io.Writer, "Message ID: %s\n", message.ID.String())
	_, _ = fmt.Fprintf(io.Writer, "Correlation ID: %s\n", message.CorrelationID.String())
	_, _ = fmt.Fprintf(io.Writer, "Type: %s\n", message.MessageType)
	_, _ = fmt.Fprintf(io.Writer, "Destination: %s\n", message.Destination)
	_, _ = fmt.Fprintf(io.Writer, "Attempts: %d\n", message.Attempts)
	if message.LastError != nil {
		_, _ = fmt.Fprintf(io.Writer, "Last error: %s\n", *message.LastError)
	}
	_, _ = fmt.Fprintf(io.Writer, "Created at: %s\n", message.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	_, _ = fmt.Fprintln(io.Writer)
}
