package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Row, int, error)
	ListUnbilled(ctx context.Context) ([]*UnbilledAppointment, error)
	Report(ctx context.Context, dateFrom, dateTo string) ([]*ReportRow, error)
	CountByAppointment(ctx context.Context, appointmentID, excludeID uuid.UUID) (int, error)
}
