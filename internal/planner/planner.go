package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/recipe"
	"macro-meal-planner/internal/solver"
)

// DefaultCandidateLimit is how many recipes a shared-mode day draws from.
const DefaultCandidateLimit = 2100

// ErrNotEnoughRecipes is returned when a partitioned plan asks for more days
// than there are recipes.
var ErrNotEnoughRecipes = errors.New("not enough recipes for the requested days")

// RecipeSource is the slice of the recipe repository the planner reads from.
type RecipeSource interface {
	List(ctx context.Context, limit int) ([]recipe.Recipe, error)
	ListPage(ctx context.Context, offset, limit int) ([]recipe.Recipe, error)
	Count(ctx context.Context) (int, error)
}

// Options tunes the selection model.
type Options struct {
	Objective Objective
	// Servings switches from pick-or-skip to integer serving counts.
	Servings    bool
	MaxServings int
	NodeLimit   int
}

// PlanRequest describes a multi-day plan.
type PlanRequest struct {
	Target nutrition.Macros
	Days   int
	Mode   Mode
	// Limit caps the shared-mode pool; 0 means DefaultCandidateLimit.
	Limit int
}

// Planner builds menus that hit a macronutrient target exactly.
type Planner struct {
	recipes RecipeSource
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

// NewPlanner creates a new Planner instance.
func NewPlanner(recipes RecipeSource, opts Options, logger *zap.Logger) *Planner {
	if opts.Objective == "" {
		opts.Objective = ObjectiveMinCalories
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		recipes: recipes,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// GenerateDayMenu selects recipes from candidates whose combined macros meet
// target. An unreachable target yields an empty menu with a non-optimal
// status rather than an error.
func (p *Planner) GenerateDayMenu(ctx context.Context, target nutrition.Macros, candidates []recipe.Recipe) (*Menu, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return p.solveDay(ctx, target, candidates)
}

func (p *Planner) solveDay(ctx context.Context, target nutrition.Macros, candidates []recipe.Recipe) (*Menu, error) {
	start := time.Now()
	if len(candidates) == 0 {
		status := solver.StatusInfeasible
		if target == (nutrition.Macros{}) {
			status = solver.StatusOptimal
		}
		return &Menu{Target: target, Status: status, Latency: time.Since(start)}, nil
	}

	problem := buildProblem(target, candidates, p.opts)
	sol, err := solver.Solve(ctx, problem, solver.Options{NodeLimit: p.opts.NodeLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to solve menu: %w", err)
	}
	if sol.Skipped > 0 {
		p.logger.Warn("solver branched nodes without an LP bound", zap.Int("skipped", sol.Skipped))
	}

	menu := menuFromSolution(target, candidates, sol)
	menu.Latency = time.Since(start)
	return menu, nil
}

// GeneratePlan builds one menu per requested day.
func (p *Planner) GeneratePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	if req.Days < 1 {
		return nil, fmt.Errorf("days must be at least 1, got %d", req.Days)
	}
	if req.Mode == "" {
		req.Mode = ModePartitioned
	}

	pools, err := p.candidatePools(ctx, req)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		RunID:     uuid.NewString(),
		CreatedAt: p.now().UTC(),
		Mode:      req.Mode,
		Objective: p.opts.Objective,
		Target:    req.Target,
		Days:      make([]DayPlan, 0, req.Days),
	}
	for i := 0; i < req.Days; i++ {
		menu, err := p.solveDay(ctx, req.Target, pools(i))
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i+1, err)
		}
		p.logger.Info("planned day",
			zap.String("run_id", plan.RunID),
			zap.Int("day", i+1),
			zap.Int("candidates", menu.Candidates),
			zap.String("status", string(menu.Status)),
			zap.Int("selected", menu.Selected()),
			zap.Int("nodes", menu.Nodes),
			zap.Duration("latency", menu.Latency),
		)
		plan.Days = append(plan.Days, DayPlan{Day: i + 1, Menu: menu})
	}
	return plan, nil
}

// candidatePools loads every pool up front and returns an accessor by day
// index.
func (p *Planner) candidatePools(ctx context.Context, req PlanRequest) (func(int) []recipe.Recipe, error) {
	switch req.Mode {
	case ModeShared:
		limit := req.Limit
		if limit <= 0 {
			limit = DefaultCandidateLimit
		}
		pool, err := p.recipes.List(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load candidates: %w", err)
		}
		return func(int) []recipe.Recipe { return pool }, nil

	case ModePartitioned:
		count, err := p.recipes.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count recipes: %w", err)
		}
		pages, err := Partition(count, req.Days)
		if err != nil {
			return nil, err
		}
		pools := make([][]recipe.Recipe, len(pages))
		for i, pg := range pages {
			pools[i], err = p.recipes.ListPage(ctx, pg.Offset, pg.Limit)
			if err != nil {
				return nil, fmt.Errorf("failed to load candidates for day %d: %w", i+1, err)
			}
		}
		return func(i int) []recipe.Recipe { return pools[i] }, nil

	default:
		return nil, fmt.Errorf("unknown plan mode %q", req.Mode)
	}
}
