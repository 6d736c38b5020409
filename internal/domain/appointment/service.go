package appointment

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
	// ErrNotFound signals that no appointment exists for the given id.
	ErrNotFound = errors.New("appointment not found")
	// ErrSlotTaken refuses an insert or update when the doctor already has
	// an appointment at that date and time.
	ErrSlotTaken = errors.New("the doctor already has an appointment at this date and time")
	// ErrHasInvoice refuses a delete while an invoice references the
	// appointment.
	ErrHasInvoice = errors.New("appointment has an associated invoice and cannot be deleted")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if _, err := time.Parse("2006-01-02", a.Date); err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", a.Date)
	}
	if _, err := time.Parse("15:04", a.Time); err != nil {
		return fmt.Errorf("invalid time %q: want HH:MM", a.Time)
	}
	return nil
}

// CheckAvailability reports whether the (doctor, date, time) slot is free.
// excludeID skips the appointment being edited.
func (s *Service) CheckAvailability(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (bool, error) {
	count, err := s.repo.CountBySlot(ctx, doctorID, date, timeOfDay, excludeID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// CreateAppointment inserts after an availability pre-check. A unique index
// on (doctor_id, date, time) backs the check, so a concurrent writer that
// slips past it is still refused by the database.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if err := s.validate(a); err != nil {
		return err
	}

	free, err := s.CheckAvailability(ctx, a.DoctorID, a.Date, a.Time, uuid.Nil)
	if err != nil {
		return err
	}
	if !free {
		return ErrSlotTaken
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrSlotTaken
		}
		return err
	}
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	if err := s.validate(a); err != nil {
		return err
	}

	free, err := s.CheckAvailability(ctx, a.DoctorID, a.Date, a.Time, a.ID)
	if err != nil {
		return err
	}
	if !free {
		return ErrSlotTaken
	}

	ok, err := s.repo.Update(ctx, a)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrSlotTaken
		}
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteAppointment refuses the delete while an invoice references the
// appointment. The invoice check and the delete run in one transaction; the
// foreign key backs the check.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.repo.InTx(ctx, func(ctx context.Context) error {
		count, err := s.repo.CountInvoices(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrHasInvoice
		}

		ok, err := s.repo.Delete(ctx, id)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrHasInvoice
			}
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Service) ListAppointments(ctx context.Context, dateFrom, dateTo string, limit, offset int) ([]*Row, int, error) {
	if dateFrom != "" {
		if _, err := time.Parse("2006-01-02", dateFrom); err != nil {
			return nil, 0, fmt.Errorf("invalid date_from %q: want YYYY-MM-DD", dateFrom)
		}
	}
	if dateTo != "" {
		if _, err := time.Parse("2006-01-02", dateTo); err != nil {
			return nil, 0, fmt.Errorf("invalid date_to %q: want YYYY-MM-DD", dateTo)
		}
	}
	return s.repo.List(ctx, dateFrom, dateTo, limit, offset)
}

func (s *Service) ListUpcomingAppointments(ctx context.Context, limit, offset int) ([]*Row, int, error) {
	return s.repo.ListUpcoming(ctx, limit, offset)
}
