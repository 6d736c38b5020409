package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinica/clinica/internal/platform/db"
)

var (
	// ErrNotFound signals that no invoice exists for the given id.
	ErrNotFound = errors.New("invoice not found")
	// ErrAlreadyBilled refuses a second invoice for the same appointment.
	ErrAlreadyBilled = errors.New("the appointment already has an invoice")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(inv *Invoice) error {
	if inv.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	if _, err := time.Parse("2006-01-02", inv.IssueDate); err != nil {
		return fmt.Errorf("invalid issue_date %q: want YYYY-MM-DD", inv.IssueDate)
	}
	if inv.Amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	return nil
}

// CreateInvoice inserts after checking that the appointment is not billed
// yet. A unique index on appointment_id backs the check.
func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if err := s.validate(inv); err != nil {
		return err
	}

	count, err := s.repo.CountByAppointment(ctx, inv.AppointmentID, uuid.Nil)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyBilled
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyBilled
		}
		return err
	}
	return nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (s *Service) UpdateInvoice(ctx context.Context, inv *Invoice) error {
	if err := s.validate(inv); err != nil {
		return err
	}

	count, err := s.repo.CountByAppointment(ctx, inv.AppointmentID, inv.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyBilled
	}

	ok, err := s.repo.Update(ctx, inv)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyBilled
		}
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListInvoices(ctx context.Context, limit, offset int) ([]*Row, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListUnbilledAppointments returns the appointments that can still receive
// an invoice.
func (s *Service) ListUnbilledAppointments(ctx context.Context) ([]*UnbilledAppointment, error) {
	return s.repo.ListUnbilled(ctx)
}

// BillingReport totals amount and invoice count per payer over the inclusive
// issue-date range.
func (s *Service) BillingReport(ctx context.Context, dateFrom, dateTo string) ([]*ReportRow, error) {
	from, err := time.Parse("2006-01-02", dateFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid date_from %q: want YYYY-MM-DD", dateFrom)
	}
	to, err := time.Parse("2006-01-02", dateTo)
	if err != nil {
		return nil, fmt.Errorf("invalid date_to %q: want YYYY-MM-DD", dateTo)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("date_to must not be before date_from")
	}
	return s.repo.Report(ctx, dateFrom, dateTo)
}
