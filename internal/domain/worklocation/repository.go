package worklocation

import "context"

type WorkLocationRepository interface {
	GetByID(ctx context.Context, id string) (WorkLocation, error)
	// GetForUser resolves the user's assigned work location.
	GetForUser(ctx context.Context, userID string) (WorkLocation, error)
}
