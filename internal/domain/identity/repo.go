package identity

import (
	"context"

	"github.com/google/uuid"
)

// loginRow is the credential projection Verify works from: the stored hash
// plus the resolved role and display names.
type loginRow struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	RoleName     string
	DisplayName  string
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, u *User) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*UserRow, int, error)
	CountByUsername(ctx context.Context, username string, excludeID uuid.UUID) (int, error)
	GetByUsername(ctx context.Context, username string) (*loginRow, error)
	ListRoles(ctx context.Context) ([]*Role, error)
}
