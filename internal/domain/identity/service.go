package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinica/clinica/internal/platform/auth"
	"github.com/clinica/clinica/internal/platform/db"
)

var (
	// ErrNotFound signals that no user exists for the given id.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUsername refuses an insert or update that would reuse a
	// taken username.
	ErrDuplicateUsername = errors.New("username is already taken")
	// ErrInvalidCredentials is the uniform login failure: the caller cannot
	// tell a wrong password from an unknown username.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateUser hashes the cleartext password and inserts after a username
// pre-check. A unique index on username backs the check.
func (s *Service) CreateUser(ctx context.Context, u *User, password string) error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if u.RoleID == uuid.Nil {
		return fmt.Errorf("role_id is required")
	}

	count, err := s.repo.CountByUsername(ctx, u.Username, uuid.Nil)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateUsername
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash

	if err := s.repo.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateUser changes username, role and doctor assignment. The password is
// only touched through ChangePassword.
func (s *Service) UpdateUser(ctx context.Context, u *User) error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if u.RoleID == uuid.Nil {
		return fmt.Errorf("role_id is required")
	}

	count, err := s.repo.CountByUsername(ctx, u.Username, u.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateUsername
	}

	ok, err := s.repo.Update(ctx, u)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("password is required")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	ok, err := s.repo.UpdatePassword(ctx, id, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*UserRow, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.repo.ListRoles(ctx)
}

// Verify checks a username/password pair against the stored hash and returns
// the four identifying fields on a match. Failures are uniform: an unknown
// username and a wrong password produce the same error.
func (s *Service) Verify(ctx context.Context, username, password string) (*Verified, error) {
	row, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, row.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &Verified{
		UserID:      row.ID,
		Username:    row.Username,
		RoleName:    row.RoleName,
		DisplayName: row.DisplayName,
	}, nil
}
