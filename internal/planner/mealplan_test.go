package planner

import (
	"reflect"
	"testing"
)

func TestRecipeIDs(t *testing.T) {
	plan := &WeekPlan{Days: map[string]string{
		"Monday":    "r1",
		"Tuesday":   "r1,r2",
		"Wednesday": "",
		"Thursday":  " r3 , ,r4 ",
		"Friday":    ",",
	}}

	tests := []struct {
		day  string
		want []string
	}{
		{"Monday", []string{"r1"}},
		{"Tuesday", []string{"r1", "r2"}},
		{"Wednesday", nil},
		{"Thursday", []string{"r3", "r4"}},
		{"Friday", nil},
		{"Sunday", nil},
	}

	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			if got := plan.RecipeIDs(tt.day); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestWeekPlanFromData(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		plan, err := WeekPlanFromData("k", map[string]interface{}{"Monday": "r1", "Tuesday": nil})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if plan.Days["Monday"] != "r1" || plan.Days["Tuesday"] != "" {
			t.Errorf("Unexpected days: %v", plan.Days)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		if _, err := WeekPlanFromData("k", map[string]interface{}{"Monday": []interface{}{"r1"}}); err == nil {
			t.Fatal("Expected an error for non-string weekday value, got nil")
		}
	})
}
