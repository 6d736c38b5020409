package medicalrecord

import (
	"context"

	"github.com/google/uuid"
)

type RecordRepository interface {
	Create(ctx context.Context, rec *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*MedicalRecord, error)
	Update(ctx context.Context, rec *MedicalRecord) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*RecordRow, int, error)
	ListPatientsWithout(ctx context.Context) ([]*PatientWithoutRecord, error)
	CountByPatient(ctx context.Context, patientID, excludeID uuid.UUID) (int, error)
	CountConsultations(ctx context.Context, recordID uuid.UUID) (int, error)

	// InTx runs fn with every repository call inside one transaction,
	// committing on nil and rolling back on error.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ConsultationRepository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*Consultation, error)
	CountChildren(ctx context.Context, consultationID uuid.UUID) (int, error)

	// InTx runs fn with every repository call inside one transaction,
	// committing on nil and rolling back on error.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	Update(ctx context.Context, p *Prescription) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*Prescription, error)
}

type StudyRepository interface {
	Create(ctx context.Context, s *Study) error
	Update(ctx context.Context, s *Study) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*Study, error)
}
