package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"macro-meal-planner/internal/config"
	"macro-meal-planner/internal/database"
	"macro-meal-planner/internal/ingest"
	"macro-meal-planner/internal/metrics"
	"macro-meal-planner/internal/planner"
	"macro-meal-planner/internal/recipe"
	"macro-meal-planner/internal/storage"
)

// App holds the application's dependencies.
type App struct {
	cfg          *config.Config
	db           *database.DB
	recipeRepo   *recipe.Repository
	metricsStore *metrics.Store
	mealPlanner  *planner.Planner
	ingester     *ingest.Ingester
	archive      *storage.PlanArchive
	logger       *zap.Logger
}

// NewApp creates and initializes a new App instance. archive may be nil.
func NewApp(
	cfg *config.Config,
	db *database.DB,
	recipeRepo *recipe.Repository,
	metricsStore *metrics.Store,
	mealPlanner *planner.Planner,
	ingester *ingest.Ingester,
	archive *storage.PlanArchive,
	logger *zap.Logger,
) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:          cfg,
		db:           db,
		recipeRepo:   recipeRepo,
		metricsStore: metricsStore,
		mealPlanner:  mealPlanner,
		ingester:     ingester,
		archive:      archive,
		logger:       logger,
	}
}

// New opens the store described by cfg and wires every component.
func New(cfg *config.Config, filter ingest.Filter, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	objective, err := planner.ParseObjective(cfg.PlannerObjective)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(database.OptionsFromConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var archive *storage.PlanArchive
	if cfg.PlanArchiveDir != "" {
		if archive, err = storage.NewPlanArchive(cfg.PlanArchiveDir); err != nil {
			db.Close()
			return nil, err
		}
	}

	recipeRepo := recipe.NewRepository(db)
	mealPlanner := planner.NewPlanner(recipeRepo, planner.Options{
		Objective:   objective,
		Servings:    cfg.PlannerServings,
		MaxServings: cfg.MaxServings,
		NodeLimit:   cfg.NodeLimit,
	}, logger.Named("planner"))
	ingester := ingest.NewIngester(recipeRepo, ingest.Options{
		Filter:   filter,
		LockPath: cfg.IngestLockPath,
	}, logger.Named("ingest"))

	return NewApp(cfg, db, recipeRepo, metrics.NewStore(db), mealPlanner, ingester, archive, logger), nil
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.db.Close()
}

// StorePath is the on-disk location of the recipe store, or "" when the
// database is remote.
func (a *App) StorePath() string {
	if a.cfg.DBDriver == config.DriverPostgres {
		return ""
	}
	return a.cfg.DBName
}

// GeneratePlan builds a plan, records one solve metric per day and archives
// the plan when an archive is configured.
func (a *App) GeneratePlan(ctx context.Context, req planner.PlanRequest) (*planner.Plan, error) {
	if req.Limit <= 0 {
		req.Limit = a.cfg.CandidateLimit
	}

	plan, err := a.mealPlanner.GeneratePlan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	for _, d := range plan.Days {
		m := metrics.SolveMetric{
			RunID:      plan.RunID,
			Day:        d.Day,
			Candidates: d.Menu.Candidates,
			Status:     string(d.Menu.Status),
			Selected:   d.Menu.Selected(),
			Nodes:      d.Menu.Nodes,
			LatencyMS:  d.Menu.Latency.Milliseconds(),
			Timestamp:  plan.CreatedAt,
		}
		if err := a.metricsStore.Record(ctx, m); err != nil {
			a.logger.Warn("failed to record solve metric", zap.Int("day", d.Day), zap.Error(err))
		}
	}

	if a.archive != nil {
		path, err := a.archive.Save(plan)
		if err != nil {
			a.logger.Warn("failed to archive plan", zap.String("run_id", plan.RunID), zap.Error(err))
		} else {
			a.logger.Info("archived plan", zap.String("path", path))
		}
	}
	return plan, nil
}

// RecipeCount returns the number of stored recipes.
func (a *App) RecipeCount(ctx context.Context) (int, error) {
	return a.recipeRepo.Count(ctx)
}

// DailySummary returns solve aggregates for the last days days.
func (a *App) DailySummary(ctx context.Context, days int) ([]metrics.DailySummary, error) {
	return a.metricsStore.GetDailySummary(ctx, days)
}

// CleanupMetrics deletes solve metrics older than days days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	deleted, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return 0, err
	}
	a.logger.Info("cleaned up solve metrics", zap.Int64("deleted", deleted), zap.Int("older_than_days", days))
	return deleted, nil
}
