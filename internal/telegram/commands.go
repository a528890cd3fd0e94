package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"macro-meal-planner/internal/metrics"
	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/planner"
	"macro-meal-planner/internal/report"
)

const helpText = `Commands:
/plan <calories> <protein> <carbs> <fat> [days] [shared|partitioned]
/count - number of stored recipes
/metrics - solve statistics (admin only)`

const maxDays = 14

// respond computes the reply for one incoming message.
func (b *Bot) respond(ctx context.Context, userID int64, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}

	// Commands in groups arrive as /plan@BotName.
	cmd, _, _ := strings.Cut(fields[0], "@")
	switch cmd {
	case "/plan":
		req, err := parsePlanCommand(fields[1:])
		if err != nil {
			return fmt.Sprintf("❌ %v\n\n%s", err, helpText)
		}
		b.logger.Info("plan requested", zap.Int64("user_id", userID), zap.Int("days", req.Days))
		plan, err := b.service.GeneratePlan(ctx, req)
		if err != nil {
			if errors.Is(err, nutrition.ErrMacroMismatch) {
				return "❌ Something is wrong with your macronutrients: calories must equal protein×4 + carbs×4 + fat×9."
			}
			b.logger.Error("failed to generate plan", zap.Error(err))
			return fmt.Sprintf("❌ Error generating plan: %v", err)
		}
		return formatPlan(plan)

	case "/count":
		n, err := b.service.RecipeCount(ctx)
		if err != nil {
			return "❌ Error counting recipes."
		}
		return fmt.Sprintf("📚 %d recipes available.", n)

	case "/metrics":
		if userID != b.cfg.AdminTelegramID {
			return "⛔ Access Denied: Admin only."
		}
		summary, err := b.service.DailySummary(ctx, 7)
		if err != nil {
			return "❌ Error fetching metrics."
		}
		return formatMetrics(summary, metrics.GetSysHealth(b.service.StorePath()))

	default:
		return helpText
	}
}

// parsePlanCommand reads "<calories> <protein> <carbs> <fat> [days] [mode]".
func parsePlanCommand(args []string) (planner.PlanRequest, error) {
	if len(args) < 4 || len(args) > 6 {
		return planner.PlanRequest{}, errors.New("expected calories, protein, carbs and fat")
	}

	var vals [4]float64
	for i, name := range []string{"calories", "protein", "carbs", "fat"} {
		v, err := strconv.Atoi(args[i])
		if err != nil || v < 0 {
			return planner.PlanRequest{}, fmt.Errorf("%s must be a non-negative integer, got %q", name, args[i])
		}
		vals[i] = float64(v)
	}

	req := planner.PlanRequest{
		Target: nutrition.Macros{Calories: vals[0], Protein: vals[1], Carbs: vals[2], Fat: vals[3]},
		Days:   1,
		Mode:   planner.ModeShared,
	}
	if len(args) > 4 {
		days, err := strconv.Atoi(args[4])
		if err != nil || days < 1 || days > maxDays {
			return planner.PlanRequest{}, fmt.Errorf("days must be between 1 and %d, got %q", maxDays, args[4])
		}
		req.Days = days
	}
	if len(args) > 5 {
		mode, err := planner.ParseMode(args[5])
		if err != nil {
			return planner.PlanRequest{}, err
		}
		req.Mode = mode
	}
	return req, nil
}

func formatPlan(plan *planner.Plan) string {
	var sb strings.Builder
	sb.WriteString("📅 Meal Plan\n")
	fmt.Fprintf(&sb, "🎯 %g kcal, %gg protein, %gg carbs, %gg fat\n\n",
		plan.Target.Calories, plan.Target.Protein, plan.Target.Carbs, plan.Target.Fat)
	sb.WriteString(report.Text(plan))
	return sb.String()
}

func formatMetrics(summary []metrics.DailySummary, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 Solver & Health Report\n\n")

	sb.WriteString("🗓 Recent Solves\n")
	if len(summary) == 0 {
		sb.WriteString("No data yet\n")
	}
	for _, d := range summary {
		fmt.Fprintf(&sb, "• %s: %d solves (%d optimal), avg %.0f ms, %d nodes\n",
			d.Date, d.Solves, d.Optimal, d.AvgLatencyMS, d.TotalNodes)
	}

	sb.WriteString("\n🧠 System Health\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Store: %s\n", health.StoreSize)
	return sb.String()
}

// splitMessage breaks text into chunks of at most limit bytes, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
