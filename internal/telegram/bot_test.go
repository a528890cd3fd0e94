package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"macro-meal-planner/internal/config"
	"macro-meal-planner/internal/metrics"
	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/planner"
	"macro-meal-planner/internal/recipe"
	"macro-meal-planner/internal/solver"
)

type mockService struct {
	lastReq planner.PlanRequest
	planErr error
}

func (m *mockService) GeneratePlan(ctx context.Context, req planner.PlanRequest) (*planner.Plan, error) {
	m.lastReq = req
	if m.planErr != nil {
		return nil, m.planErr
	}
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	soup := recipe.New("Lentil Soup", 500, 40, 10)
	plan := &planner.Plan{Target: req.Target, Mode: req.Mode}
	for d := 1; d <= req.Days; d++ {
		plan.Days = append(plan.Days, planner.DayPlan{Day: d, Menu: &planner.Menu{
			Target: req.Target,
			Items:  []planner.MenuItem{{Recipe: soup, Servings: 1}},
			Totals: soup.Macros(),
			Status: solver.StatusOptimal,
		}})
	}
	return plan, nil
}

func (m *mockService) RecipeCount(ctx context.Context) (int, error) {
	return 42, nil
}

func (m *mockService) DailySummary(ctx context.Context, days int) ([]metrics.DailySummary, error) {
	return []metrics.DailySummary{{Date: "2024-03-10", Solves: 3, Optimal: 2, AvgLatencyMS: 120, TotalNodes: 57}}, nil
}

func (m *mockService) StorePath() string {
	return ""
}

func newTestBot(svc Service) *Bot {
	return &Bot{
		service: svc,
		cfg:     &config.Config{AdminTelegramID: 7, TelegramAllowedUserIDs: []int64{7, 8}},
		logger:  zap.NewNop(),
	}
}

func TestParsePlanCommand(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		req, err := parsePlanCommand([]string{"500", "40", "62", "11"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		want := nutrition.Macros{Calories: 500, Protein: 40, Carbs: 62, Fat: 11}
		if req.Target != want {
			t.Errorf("Expected target %+v, got %+v", want, req.Target)
		}
		if req.Days != 1 || req.Mode != planner.ModeShared {
			t.Errorf("Expected 1 shared day, got %d %s", req.Days, req.Mode)
		}
	})

	t.Run("DaysAndMode", func(t *testing.T) {
		req, err := parsePlanCommand([]string{"2000", "70", "250", "80", "3", "partitioned"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if req.Days != 3 || req.Mode != planner.ModePartitioned {
			t.Errorf("Expected 3 partitioned days, got %d %s", req.Days, req.Mode)
		}
	})

	for name, args := range map[string][]string{
		"TooFewArgs":  {"2000", "70"},
		"NotInteger":  {"2000", "70.5", "250", "80"},
		"Negative":    {"2000", "-70", "250", "80"},
		"TooManyDays": {"2000", "70", "250", "80", "99"},
		"BadMode":     {"2000", "70", "250", "80", "2", "weekly"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := parsePlanCommand(args); err == nil {
				t.Errorf("Expected an error for %v", args)
			}
		})
	}
}

func TestRespond(t *testing.T) {
	ctx := context.Background()

	t.Run("Plan", func(t *testing.T) {
		svc := &mockService{}
		out := newTestBot(svc).respond(ctx, 8, "/plan 500 40 62 11 2")
		// 500 != 40*4 + 62*4 + 11*9, so the mock rejects it like the planner would.
		if !strings.Contains(out, "wrong with your macronutrients") {
			t.Errorf("Expected a macro mismatch reply, got %q", out)
		}

		out = newTestBot(svc).respond(ctx, 8, "/plan 2000 70 250 80 2")
		if !strings.Contains(out, "Day 1") || !strings.Contains(out, "Day 2") || !strings.Contains(out, "Lentil Soup") {
			t.Errorf("Expected a two-day report, got %q", out)
		}
		if svc.lastReq.Days != 2 {
			t.Errorf("Expected 2 days requested, got %d", svc.lastReq.Days)
		}
	})

	t.Run("PlanWithBotSuffix", func(t *testing.T) {
		svc := &mockService{}
		newTestBot(svc).respond(ctx, 8, "/plan@MealBot 2000 70 250 80")
		if svc.lastReq.Target.Calories != 2000 {
			t.Errorf("Expected the command to be parsed, got %+v", svc.lastReq)
		}
	})

	t.Run("PlanError", func(t *testing.T) {
		svc := &mockService{planErr: errors.New("database is down")}
		out := newTestBot(svc).respond(ctx, 8, "/plan 2000 70 250 80")
		if !strings.Contains(out, "database is down") {
			t.Errorf("Expected the error in the reply, got %q", out)
		}
	})

	t.Run("Count", func(t *testing.T) {
		out := newTestBot(&mockService{}).respond(ctx, 8, "/count")
		if !strings.Contains(out, "42 recipes") {
			t.Errorf("Expected recipe count, got %q", out)
		}
	})

	t.Run("MetricsAdminOnly", func(t *testing.T) {
		b := newTestBot(&mockService{})
		if out := b.respond(ctx, 8, "/metrics"); !strings.Contains(out, "Admin only") {
			t.Errorf("Expected access denied, got %q", out)
		}
		out := b.respond(ctx, 7, "/metrics")
		if !strings.Contains(out, "2024-03-10: 3 solves (2 optimal), avg 120 ms, 57 nodes") {
			t.Errorf("Expected solve summary, got %q", out)
		}
		if !strings.Contains(out, "Store: n/a") {
			t.Errorf("Expected store size, got %q", out)
		}
	})

	t.Run("Help", func(t *testing.T) {
		if out := newTestBot(&mockService{}).respond(ctx, 8, "hello"); out != helpText {
			t.Errorf("Expected help text, got %q", out)
		}
	})
}

func TestIsAllowed(t *testing.T) {
	b := newTestBot(&mockService{})
	if !b.isAllowed(8) {
		t.Error("Expected user 8 to be allowed")
	}
	if b.isAllowed(9) {
		t.Error("Expected user 9 to be rejected")
	}
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("line of text\n", 10)
	parts := splitMessage(text, 30)
	if strings.Join(parts, "\n") != text {
		t.Errorf("Expected parts to rejoin into the original text, got %q", parts)
	}
	for _, p := range parts {
		if len(p) > 30 {
			t.Errorf("Expected part of at most 30 bytes, got %d", len(p))
		}
	}
	if got := splitMessage("short", 30); len(got) != 1 || got[0] != "short" {
		t.Errorf("Expected a single part, got %q", got)
	}
}
