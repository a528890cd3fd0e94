package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"macro-meal-planner/internal/ingest"
)

// IngestRecipes loads a CSV or XLSX recipe export into the store.
func (a *App) IngestRecipes(ctx context.Context, path string) (ingest.Stats, error) {
	stats, err := a.ingester.IngestFile(ctx, path)
	if err != nil {
		return stats, fmt.Errorf("failed to ingest %s: %w", path, err)
	}

	count, err := a.recipeRepo.Count(ctx)
	if err != nil {
		a.logger.Warn("failed to count recipes after ingestion", zap.Error(err))
	} else {
		a.logger.Info("recipe store updated", zap.Int("recipes", count))
	}
	return stats, nil
}
