package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/ordersaga/internal/app"
	"github.com/allisson/ordersaga/internal/config"
)

// RunSeedInventory loads the initial stock levels into the inventory table.
// Running it again resets the seeded products to their initial quantities.
//
// Requirements: Database must be migrated and accessible.
func RunSeedInventory(ctx context.Context) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	inventoryUseCase, err := container.InventoryUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize inventory usecase: %w", err)
	}

	if err := inventoryUseCase.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed inventory: %w", err)
	}

	logger.Info("inventory seeded successfully", slog.String("database", cfg.DBDriver))
	return nil
}
