package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"daily-meal-notifier/internal/logging"
	"daily-meal-notifier/internal/recipe"

	"github.com/rs/zerolog"
)

// PlanReader fetches a week plan by key; nil, nil means no plan.
type PlanReader interface {
	GetWeek(ctx context.Context, key string) (*WeekPlan, error)
}

// RecipeReader fetches a recipe by ID; nil, nil means not found.
type RecipeReader interface {
	Get(ctx context.Context, id string) (*recipe.Recipe, error)
}

// Lookup renders the meal message for a day from the stored plans.
type Lookup struct {
	plans   PlanReader
	recipes RecipeReader
	clock   Clock
	log     *zerolog.Logger
}

// NewLookup creates a new Lookup.
func NewLookup(plans PlanReader, recipes RecipeReader, clock Clock, logger *zerolog.Logger) *Lookup {
	compLog := logging.Component(logger, "MealLookup")
	return &Lookup{
		plans:   plans,
		recipes: recipes,
		clock:   clock,
		log:     compLog,
	}
}

// TodayMeal returns the message for today. It never fails: a lookup error is
// turned into a sendable message describing it.
func (l *Lookup) TodayMeal(ctx context.Context) string {
	msg, err := l.Meal(ctx, l.clock.Now())
	if err != nil {
		errMsg := fmt.Sprintf("Error getting meal information: %v", err)
		l.log.Error().Err(err).Msg("meal lookup failed")
		return errMsg
	}
	return msg
}

// Meal renders the message for the given day.
func (l *Lookup) Meal(ctx context.Context, day time.Time) (string, error) {
	weekday, date := FormatDay(day)
	key := WeekKey(day)

	plan, err := l.plans.GetWeek(ctx, key)
	if err != nil {
		return "", err
	}
	if plan == nil {
		l.log.Info().Str("week", key).Msg("no meal plan found")
		return NoMealMessage(day), nil
	}

	ids := plan.RecipeIDs(weekday)
	if len(ids) == 0 {
		l.log.Info().Str("week", key).Str("day", weekday).Msg("no meal planned")
		return NoMealMessage(day), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽️ Today's Meal (%s, %s):\n\n", weekday, date)

	for _, id := range ids {
		rec, err := l.recipes.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if rec == nil {
			l.log.Warn().Str("recipe_id", id).Msg("recipe not found")
			continue
		}
		sb.WriteString(rec.Section())
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String()), nil
}

// NoMealMessage is the message sent when nothing is planned for the day.
func NoMealMessage(day time.Time) string {
	weekday, date := FormatDay(day)
	return fmt.Sprintf("No meal planned for %s, %s", weekday, date)
}
