package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	SearchByDNI(ctx context.Context, dni string, limit, offset int) ([]*Doctor, int, error)
	SearchByLastName(ctx context.Context, lastName string, limit, offset int) ([]*Doctor, int, error)
	ComboList(ctx context.Context) ([]*ComboItem, error)
	CountAppointments(ctx context.Context, doctorID uuid.UUID) (int, error)

	// InTx runs fn with every repository call inside one transaction,
	// committing on nil and rolling back on error.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
