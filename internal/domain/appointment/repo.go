package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, dateFrom, dateTo string, limit, offset int) ([]*Row, int, error)
	ListUpcoming(ctx context.Context, limit, offset int) ([]*Row, int, error)
	CountBySlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (int, error)
	CountInvoices(ctx context.Context, appointmentID uuid.UUID) (int, error)

	// InTx runs fn with every repository call inside one transaction,
	// committing on nil and rolling back on error.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
