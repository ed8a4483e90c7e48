package recipe

import (
	"fmt"
	"strings"
)

// Recipe is a dish referenced from a weekly meal plan.
type Recipe struct {
	ID          string   `firestore:"-"`
	Name        string   `firestore:"name"`
	Ingredients []string `firestore:"ingredients"`
}

// Section renders the recipe as a message block: the name line, an
// "Ingredients:" line and one bullet per ingredient.
func (r Recipe) Section() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📌 %s\n", r.Name)
	sb.WriteString("Ingredients:\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "• %s\n", ing)
	}
	return sb.String()
}

// FromData builds a Recipe from a raw document map. A missing or non-string
// name, or a non-string ingredient, makes the document malformed.
func FromData(id string, data map[string]interface{}) (*Recipe, error) {
	name, ok := data["name"].(string)
	if !ok {
		return nil, fmt.Errorf("recipe %s: field 'name' is missing or not a string", id)
	}

	rec := &Recipe{ID: id, Name: name}

	switch raw := data["ingredients"].(type) {
	case nil:
	case []interface{}:
		for i, v := range raw {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("recipe %s: ingredient %d is %T, not a string", id, i, v)
			}
			rec.Ingredients = append(rec.Ingredients, s)
		}
	case []string:
		rec.Ingredients = append(rec.Ingredients, raw...)
	default:
		return nil, fmt.Errorf("recipe %s: field 'ingredients' is %T, not a list", id, raw)
	}

	return rec, nil
}
