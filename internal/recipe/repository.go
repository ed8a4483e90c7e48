package recipe

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection is the Firestore collection holding recipe documents.
const Collection = "recipes"

// Repository is a Firestore-backed, read-only repository for recipes.
type Repository struct {
	client *firestore.Client
}

// NewRepository creates a new Repository.
func NewRepository(client *firestore.Client) *Repository {
	return &Repository{client: client}
}

// Get retrieves a recipe by its ID. It returns nil, nil when the document
// does not exist.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	snap, err := r.client.Collection(Collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil // Recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe %s: %w", id, err)
	}
	if !snap.Exists() {
		return nil, nil
	}

	return FromData(id, snap.Data())
}
