package user

import "context"

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByRole(ctx context.Context, role Role) ([]User, error)
}
