package planner

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection is the Firestore collection holding weekly meal plans.
const Collection = "mealPlans"

// PlanRepository is a Firestore-backed, read-only repository for week plans.
type PlanRepository struct {
	client *firestore.Client
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(client *firestore.Client) *PlanRepository {
	return &PlanRepository{client: client}
}

// GetWeek retrieves the plan stored under a week key. It returns nil, nil
// when no plan exists for that week.
func (r *PlanRepository) GetWeek(ctx context.Context, key string) (*WeekPlan, error) {
	snap, err := r.client.Collection(Collection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal plan %q: %w", key, err)
	}
	if !snap.Exists() {
		return nil, nil
	}

	return WeekPlanFromData(key, snap.Data())
}
