package planner

import (
	"fmt"
	"strings"
)

// WeekPlan is the weekly meal schedule stored under a week key. Days maps a
// weekday name ("Monday") to a comma-separated list of recipe IDs.
type WeekPlan struct {
	Key  string
	Days map[string]string
}

// RecipeIDs returns the recipe IDs planned for the weekday. Fragments are
// trimmed and empty ones dropped, so an absent day, an empty string and
// a value of only commas all yield nil.
func (p *WeekPlan) RecipeIDs(weekday string) []string {
	raw, ok := p.Days[weekday]
	if !ok || raw == "" {
		return nil
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// WeekPlanFromData builds a WeekPlan from a raw document map. Every field
// must hold a string.
func WeekPlanFromData(key string, data map[string]interface{}) (*WeekPlan, error) {
	plan := &WeekPlan{Key: key, Days: make(map[string]string, len(data))}
	for day, v := range data {
		switch val := v.(type) {
		case string:
			plan.Days[day] = val
		case nil:
			plan.Days[day] = ""
		default:
			return nil, fmt.Errorf("meal plan %q: field %q is %T, not a string", key, day, v)
		}
	}
	return plan, nil
}
