package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinica/clinica/internal/platform/db"
)

var (
	// ErrNotFound signals that no patient exists for the given id.
	ErrNotFound = errors.New("patient not found")
	// ErrDuplicateDNI signals that another patient already has the DNI.
	ErrDuplicateDNI = errors.New("a patient with this DNI already exists")
	// ErrHasAppointments refuses a delete while appointments reference the
	// patient.
	ErrHasAppointments = errors.New("patient has appointments and cannot be deleted")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.DNI == "" {
		return fmt.Errorf("dni is required")
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if p.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}

	count, err := s.repo.CountByDNI(ctx, p.DNI, uuid.Nil)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateDNI
	}

	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.DNI == "" {
		return fmt.Errorf("dni is required")
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if p.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}

	count, err := s.repo.CountByDNI(ctx, p.DNI, p.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateDNI
	}

	ok, err := s.repo.Update(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeletePatient refuses the delete while the patient has appointments. The
// dependency check and the delete run in one transaction so a concurrent
// booking cannot slip in between them; the foreign key backs the check.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
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

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Row, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SearchPatientsByDNI(ctx context.Context, dni string, limit, offset int) ([]*Row, int, error) {
	return s.repo.SearchByDNI(ctx, dni, limit, offset)
}

func (s *Service) ComboList(ctx context.Context) ([]*ComboItem, error) {
	return s.repo.ComboList(ctx)
}
