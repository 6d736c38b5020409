package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinica/clinica/internal/platform/db"
)

var (
	// ErrNotFound signals that no doctor exists for the given id.
	ErrNotFound = errors.New("doctor not found")
	// ErrHasAppointments refuses a delete while appointments reference the
	// doctor.
	ErrHasAppointments = errors.New("doctor has assigned appointments and cannot be deleted")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(d *Doctor) error {
	if d.DNI == "" {
		return fmt.Errorf("dni is required")
	}
	if d.License == "" {
		return fmt.Errorf("license is required")
	}
	if d.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if d.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if d.Specialty == "" {
		return fmt.Errorf("specialty is required")
	}
	return nil
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if err := s.validate(d); err != nil {
		return err
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if err := s.validate(d); err != nil {
		return err
	}
	ok, err := s.repo.Update(ctx, d)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteDoctor refuses the delete while the doctor has assigned appointments.
// The dependency check and the delete run in one transaction; the foreign key
// backs the check.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.repo.InTx(ctx, func(ctx context.Context) error {
		count, err := s.repo.CountAppointments(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrHasAppointments
		}

		ok, err := s.repo.Delete(ctx, id)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrHasAppointments
			}
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SearchDoctorsByDNI(ctx context.Context, dni string, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.SearchByDNI(ctx, dni, limit, offset)
}

func (s *Service) SearchDoctorsByLastName(ctx context.Context, lastName string, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.SearchByLastName(ctx, lastName, limit, offset)
}

func (s *Service) ComboList(ctx context.Context) ([]*ComboItem, error) {
	return s.repo.ComboList(ctx)
}
