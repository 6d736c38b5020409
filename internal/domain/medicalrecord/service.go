package medicalrecord

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
	// ErrNotFound covers every entity in the package: record, consultation,
	// prescription and study lookups that match nothing.
	ErrNotFound = errors.New("medical record entry not found")
	// ErrRecordExists refuses a second record for the same patient.
	ErrRecordExists = errors.New("the patient already has a medical record")
	// ErrHasConsultations refuses a record delete while consultations exist.
	ErrHasConsultations = errors.New("medical record has consultations and cannot be deleted")
	// ErrHasChildren refuses a consultation delete while prescriptions or
	// studies reference it.
	ErrHasChildren = errors.New("consultation has prescriptions or studies and cannot be deleted")
)

type Service struct {
	records       RecordRepository
	consultations ConsultationRepository
	prescriptions PrescriptionRepository
	studies       StudyRepository
}

func NewService(records RecordRepository, consultations ConsultationRepository,
	prescriptions PrescriptionRepository, studies StudyRepository) *Service {
	return &Service{
		records:       records,
		consultations: consultations,
		prescriptions: prescriptions,
		studies:       studies,
	}
}

func validDate(name, value string) error {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("invalid %s %q: want YYYY-MM-DD", name, value)
	}
	return nil
}

func (s *Service) validateRecord(rec *MedicalRecord) error {
	if rec.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	return validDate("opened_date", rec.OpenedDate)
}

// CreateRecord inserts after checking that the patient has no record yet.
// A unique index on patient_id backs the check.
func (s *Service) CreateRecord(ctx context.Context, rec *MedicalRecord) error {
	if err := s.validateRecord(rec); err != nil {
		return err
	}

	count, err := s.records.CountByPatient(ctx, rec.PatientID, uuid.Nil)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRecordExists
	}

	if err := s.records.Create(ctx, rec); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrRecordExists
		}
		return err
	}
	return nil
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// GetRecordByPatient resolves a record from the patient side, the lookup the
// consultation screens start from.
func (s *Service) GetRecordByPatient(ctx context.Context, patientID uuid.UUID) (*MedicalRecord, error) {
	rec, err := s.records.GetByPatient(ctx, patientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *Service) UpdateRecord(ctx context.Context, rec *MedicalRecord) error {
	if err := s.validateRecord(rec); err != nil {
		return err
	}

	count, err := s.records.CountByPatient(ctx, rec.PatientID, rec.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRecordExists
	}

	ok, err := s.records.Update(ctx, rec)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrRecordExists
		}
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteRecord refuses the delete while consultations reference the record.
// The check and the delete run in one transaction; the foreign key backs the
// check.
func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.records.InTx(ctx, func(ctx context.Context) error {
		count, err := s.records.CountConsultations(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrHasConsultations
		}

		ok, err := s.records.Delete(ctx, id)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrHasConsultations
			}
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Service) ListRecords(ctx context.Context, limit, offset int) ([]*RecordRow, int, error) {
	return s.records.List(ctx, limit, offset)
}

// ListPatientsWithoutRecord returns the patients that can still receive a
// medical record.
func (s *Service) ListPatientsWithoutRecord(ctx context.Context) ([]*PatientWithoutRecord, error) {
	return s.records.ListPatientsWithout(ctx)
}

func (s *Service) validateConsultation(c *Consultation) error {
	if c.RecordID == uuid.Nil {
		return fmt.Errorf("record_id is required")
	}
	return validDate("date", c.Date)
}

func (s *Service) CreateConsultation(ctx context.Context, c *Consultation) error {
	if err := s.validateConsultation(c); err != nil {
		return err
	}
	if _, err := s.records.GetByID(ctx, c.RecordID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.consultations.Create(ctx, c)
}

func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := s.consultations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateConsultation(ctx context.Context, c *Consultation) error {
	if err := s.validateConsultation(c); err != nil {
		return err
	}
	ok, err := s.consultations.Update(ctx, c)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteConsultation refuses the delete while prescriptions or studies
// reference the consultation. The check and the delete run in one
// transaction; the foreign keys back the check.
func (s *Service) DeleteConsultation(ctx context.Context, id uuid.UUID) error {
	return s.consultations.InTx(ctx, func(ctx context.Context) error {
		count, err := s.consultations.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrHasChildren
		}

		ok, err := s.consultations.Delete(ctx, id)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrHasChildren
			}
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Service) ListConsultations(ctx context.Context, recordID uuid.UUID) ([]*Consultation, error) {
	return s.consultations.ListByRecord(ctx, recordID)
}

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.ConsultationID == uuid.Nil {
		return fmt.Errorf("consultation_id is required")
	}
	if p.Medication == "" {
		return fmt.Errorf("medication is required")
	}
	if _, err := s.consultations.GetByID(ctx, p.ConsultationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.prescriptions.Create(ctx, p)
}

func (s *Service) UpdatePrescription(ctx context.Context, p *Prescription) error {
	if p.Medication == "" {
		return fmt.Errorf("medication is required")
	}
	ok, err := s.prescriptions.Update(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	ok, err := s.prescriptions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListPrescriptions(ctx context.Context, consultationID uuid.UUID) ([]*Prescription, error) {
	return s.prescriptions.ListByConsultation(ctx, consultationID)
}

func (s *Service) CreateStudy(ctx context.Context, st *Study) error {
	if st.ConsultationID == uuid.Nil {
		return fmt.Errorf("consultation_id is required")
	}
	if st.StudyType == "" {
		return fmt.Errorf("study_type is required")
	}
	if err := validDate("date", st.Date); err != nil {
		return err
	}
	if _, err := s.consultations.GetByID(ctx, st.ConsultationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.studies.Create(ctx, st)
}

func (s *Service) UpdateStudy(ctx context.Context, st *Study) error {
	if st.StudyType == "" {
		return fmt.Errorf("study_type is required")
	}
	if err := validDate("date", st.Date); err != nil {
		return err
	}
	ok, err := s.studies.Update(ctx, st)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteStudy(ctx context.Context, id uuid.UUID) error {
	ok, err := s.studies.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListStudies(ctx context.Context, consultationID uuid.UUID) ([]*Study, error) {
	return s.studies.ListByConsultation(ctx, consultationID)
}
