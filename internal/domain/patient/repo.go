package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// InTx runs fn with every repository call inside one transaction,
	// committing on nil and rolling back on error.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Row, int, error)
	SearchByDNI(ctx context.Context, dni string, limit, offset int) ([]*Row, int, error)
	ComboList(ctx context.Context) ([]*ComboItem, error)
	CountByDNI(ctx context.Context, dni string, excludeID uuid.UUID) (int, error)
	CountAppointments(ctx context.Context, patientID uuid.UUID) (int, error)
}
