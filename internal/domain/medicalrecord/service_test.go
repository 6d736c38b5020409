package medicalrecord

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type mockStore struct {
	records       map[uuid.UUID]*MedicalRecord
	consultations map[uuid.UUID]*Consultation
	prescriptions map[uuid.UUID]*Prescription
	studies       map[uuid.UUID]*Study

	recordGetErr    error
	recordDeleteErr error
	consDeleteErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		records:       make(map[uuid.UUID]*MedicalRecord),
		consultations: make(map[uuid.UUID]*Consultation),
		prescriptions: make(map[uuid.UUID]*Prescription),
		studies:       make(map[uuid.UUID]*Study),
	}
}

type mockRecordRepo struct{ s *mockStore }

func (m *mockRecordRepo) Create(_ context.Context, rec *MedicalRecord) error {
	rec.ID = uuid.New()
	cp := *rec
	m.s.records[rec.ID] = &cp
	return nil
}

func (m *mockRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalRecord, error) {
	if m.s.recordGetErr != nil {
		return nil, m.s.recordGetErr
	}
	rec, ok := m.s.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRecordRepo) GetByPatient(_ context.Context, patientID uuid.UUID) (*MedicalRecord, error) {
	if m.s.recordGetErr != nil {
		return nil, m.s.recordGetErr
	}
	for _, rec := range m.s.records {
		if rec.PatientID == patientID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRecordRepo) Update(_ context.Context, rec *MedicalRecord) (bool, error) {
	if _, ok := m.s.records[rec.ID]; !ok {
		return false, nil
	}
	cp := *rec
	m.s.records[rec.ID] = &cp
	return true, nil
}

func (m *mockRecordRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if m.s.recordDeleteErr != nil {
		return false, m.s.recordDeleteErr
	}
	if _, ok := m.s.records[id]; !ok {
		return false, nil
	}
	delete(m.s.records, id)
	return true, nil
}

func (m *mockRecordRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockRecordRepo) List(_ context.Context, _, _ int) ([]*RecordRow, int, error) {
	rows := make([]*RecordRow, 0, len(m.s.records))
	for _, rec := range m.s.records {
		rows = append(rows, &RecordRow{ID: rec.ID, PatientID: rec.PatientID, OpenedDate: rec.OpenedDate})
	}
	return rows, len(rows), nil
}

func (m *mockRecordRepo) ListPatientsWithout(_ context.Context) ([]*PatientWithoutRecord, error) {
	return nil, nil
}

func (m *mockRecordRepo) CountByPatient(_ context.Context, patientID, excludeID uuid.UUID) (int, error) {
	count := 0
	for _, rec := range m.s.records {
		if rec.ID != excludeID && rec.PatientID == patientID {
			count++
		}
	}
	return count, nil
}

func (m *mockRecordRepo) CountConsultations(_ context.Context, recordID uuid.UUID) (int, error) {
	count := 0
	for _, c := range m.s.consultations {
		if c.RecordID == recordID {
			count++
		}
	}
	return count, nil
}

type mockConsultationRepo struct{ s *mockStore }

func (m *mockConsultationRepo) Create(_ context.Context, c *Consultation) error {
	c.ID = uuid.New()
	cp := *c
	m.s.consultations[c.ID] = &cp
	return nil
}

func (m *mockConsultationRepo) GetByID(_ context.Context, id uuid.UUID) (*Consultation, error) {
	c, ok := m.s.consultations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockConsultationRepo) Update(_ context.Context, c *Consultation) (bool, error) {
	if _, ok := m.s.consultations[c.ID]; !ok {
		return false, nil
	}
	cp := *c
	m.s.consultations[c.ID] = &cp
	return true, nil
}

func (m *mockConsultationRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if m.s.consDeleteErr != nil {
		return false, m.s.consDeleteErr
	}
	if _, ok := m.s.consultations[id]; !ok {
		return false, nil
	}
	delete(m.s.consultations, id)
	return true, nil
}

func (m *mockConsultationRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockConsultationRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]*Consultation, error) {
	var result []*Consultation
	for _, c := range m.s.consultations {
		if c.RecordID == recordID {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockConsultationRepo) CountChildren(_ context.Context, consultationID uuid.UUID) (int, error) {
	count := 0
	for _, p := range m.s.prescriptions {
		if p.ConsultationID == consultationID {
			count++
		}
	}
	for _, st := range m.s.studies {
		if st.ConsultationID == consultationID {
			count++
		}
	}
	return count, nil
}

type mockPrescriptionRepo struct{ s *mockStore }

func (m *mockPrescriptionRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	cp := *p
	m.s.prescriptions[p.ID] = &cp
	return nil
}

func (m *mockPrescriptionRepo) Update(_ context.Context, p *Prescription) (bool, error) {
	if _, ok := m.s.prescriptions[p.ID]; !ok {
		return false, nil
	}
	cp := *p
	m.s.prescriptions[p.ID] = &cp
	return true, nil
}

func (m *mockPrescriptionRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := m.s.prescriptions[id]; !ok {
		return false, nil
	}
	delete(m.s.prescriptions, id)
	return true, nil
}

func (m *mockPrescriptionRepo) ListByConsultation(_ context.Context, consultationID uuid.UUID) ([]*Prescription, error) {
	var result []*Prescription
	for _, p := range m.s.prescriptions {
		if p.ConsultationID == consultationID {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

type mockStudyRepo struct{ s *mockStore }

func (m *mockStudyRepo) Create(_ context.Context, st *Study) error {
	st.ID = uuid.New()
	cp := *st
	m.s.studies[st.ID] = &cp
	return nil
}

func (m *mockStudyRepo) Update(_ context.Context, st *Study) (bool, error) {
	if _, ok := m.s.studies[st.ID]; !ok {
		return false, nil
	}
	cp := *st
	m.s.studies[st.ID] = &cp
	return true, nil
}

func (m *mockStudyRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := m.s.studies[id]; !ok {
		return false, nil
	}
	delete(m.s.studies, id)
	return true, nil
}

func (m *mockStudyRepo) ListByConsultation(_ context.Context, consultationID uuid.UUID) ([]*Study, error) {
	var result []*Study
	for _, st := range m.s.studies {
		if st.ConsultationID == consultationID {
			cp := *st
			result = append(result, &cp)
		}
	}
	return result, nil
}

func newTestService() (*Service, *mockStore) {
	s := newMockStore()
	svc := NewService(
		&mockRecordRepo{s: s},
		&mockConsultationRepo{s: s},
		&mockPrescriptionRepo{s: s},
		&mockStudyRepo{s: s},
	)
	return svc, s
}

func validRecord() *MedicalRecord {
	bt := "A+"
	return &MedicalRecord{
		PatientID:  uuid.New(),
		OpenedDate: "2025-02-01",
		BloodType:  &bt,
	}
}

func TestCreateRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec := validRecord()
	if err := svc.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	got, err := svc.GetRecordByPatient(ctx, rec.PatientID)
	if err != nil {
		t.Fatalf("GetRecordByPatient: %v", err)
	}
	if got.ID != rec.ID || *got.BloodType != "A+" {
		t.Errorf("record did not round-trip: %+v", got)
	}
}

func TestCreateRecordOnePerPatient(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	first := validRecord()
	if err := svc.CreateRecord(ctx, first); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	dup := validRecord()
	dup.PatientID = first.PatientID
	if err := svc.CreateRecord(ctx, dup); !errors.Is(err, ErrRecordExists) {
		t.Fatalf("got %v, want ErrRecordExists", err)
	}
	if len(store.records) != 1 {
		t.Errorf("got %d records, want 1", len(store.records))
	}
}

func TestCreateRecordValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec := validRecord()
	rec.PatientID = uuid.Nil
	if err := svc.CreateRecord(ctx, rec); err == nil {
		t.Error("expected error for missing patient_id")
	}

	rec = validRecord()
	rec.OpenedDate = "01/02/2025"
	if err := svc.CreateRecord(ctx, rec); err == nil {
		t.Error("expected error for malformed opened_date")
	}
}

func TestDeleteRecordWithConsultations(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	rec := validRecord()
	if err := svc.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	con := &Consultation{RecordID: rec.ID, Date: "2025-02-10"}
	if err := svc.CreateConsultation(ctx, con); err != nil {
		t.Fatalf("CreateConsultation: %v", err)
	}

	if err := svc.DeleteRecord(ctx, rec.ID); !errors.Is(err, ErrHasConsultations) {
		t.Fatalf("got %v, want ErrHasConsultations", err)
	}
	if len(store.records) != 1 || len(store.consultations) != 1 {
		t.Error("refused delete must leave record and consultation rows intact")
	}

	// Once the consultation is gone the record can go too.
	if err := svc.DeleteConsultation(ctx, con.ID); err != nil {
		t.Fatalf("DeleteConsultation: %v", err)
	}
	if err := svc.DeleteRecord(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
}

func TestCreateConsultationUnknownRecord(t *testing.T) {
	svc, _ := newTestService()
	con := &Consultation{RecordID: uuid.New(), Date: "2025-02-10"}
	if err := svc.CreateConsultation(context.Background(), con); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteConsultationWithChildren(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	rec := validRecord()
	if err := svc.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	con := &Consultation{RecordID: rec.ID, Date: "2025-02-10"}
	if err := svc.CreateConsultation(ctx, con); err != nil {
		t.Fatalf("CreateConsultation: %v", err)
	}
	p := &Prescription{ConsultationID: con.ID, Medication: "Atenolol"}
	if err := svc.CreatePrescription(ctx, p); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}

	if err := svc.DeleteConsultation(ctx, con.ID); !errors.Is(err, ErrHasChildren) {
		t.Fatalf("got %v, want ErrHasChildren", err)
	}
	if len(store.consultations) != 1 || len(store.prescriptions) != 1 {
		t.Error("refused delete must leave consultation and prescription rows intact")
	}

	if err := svc.DeletePrescription(ctx, p.ID); err != nil {
		t.Fatalf("DeletePrescription: %v", err)
	}
	if err := svc.DeleteConsultation(ctx, con.ID); err != nil {
		t.Fatalf("DeleteConsultation: %v", err)
	}
}

func TestDeleteConsultationWithStudy(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec := validRecord()
	if err := svc.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	con := &Consultation{RecordID: rec.ID, Date: "2025-02-10"}
	if err := svc.CreateConsultation(ctx, con); err != nil {
		t.Fatalf("CreateConsultation: %v", err)
	}
	st := &Study{ConsultationID: con.ID, StudyType: "Ecocardiograma", Date: "2025-02-12"}
	if err := svc.CreateStudy(ctx, st); err != nil {
		t.Fatalf("CreateStudy: %v", err)
	}

	if err := svc.DeleteConsultation(ctx, con.ID); !errors.Is(err, ErrHasChildren) {
		t.Fatalf("got %v, want ErrHasChildren", err)
	}
}

func TestGetRecordRepoFailureIsNotNotFound(t *testing.T) {
	svc, store := newTestService()
	store.recordGetErr = errors.New("connection refused")

	_, err := svc.GetRecord(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, must not be ErrNotFound", err)
	}

	_, err = svc.GetRecordByPatient(context.Background(), uuid.New())
	if errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, must not be ErrNotFound", err)
	}
}

func TestDeleteRecordForeignKeyBackstop(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	rec := validRecord()
	if err := svc.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	store.recordDeleteErr = &pgconn.PgError{Code: "23503"}

	if err := svc.DeleteRecord(ctx, rec.ID); !errors.Is(err, ErrHasConsultations) {
		t.Fatalf("got %v, want ErrHasConsultations", err)
	}
}

func TestDeleteConsultationForeignKeyBackstop(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	rec := validRecord()
	if err := svc.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	con := &Consultation{RecordID: rec.ID, Date: "2025-02-10"}
	if err := svc.CreateConsultation(ctx, con); err != nil {
		t.Fatalf("CreateConsultation: %v", err)
	}
	store.consDeleteErr = &pgconn.PgError{Code: "23503"}

	if err := svc.DeleteConsultation(ctx, con.ID); !errors.Is(err, ErrHasChildren) {
		t.Fatalf("got %v, want ErrHasChildren", err)
	}
}

func TestUpdateRecordNotFound(t *testing.T) {
	svc, _ := newTestService()
	rec := validRecord()
	rec.ID = uuid.New()
	if err := svc.UpdateRecord(context.Background(), rec); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestPrescriptionValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p := &Prescription{ConsultationID: uuid.New()}
	if err := svc.CreatePrescription(ctx, p); err == nil {
		t.Error("expected error for missing medication")
	}

	p = &Prescription{Medication: "Atenolol"}
	if err := svc.CreatePrescription(ctx, p); err == nil {
		t.Error("expected error for missing consultation_id")
	}
}

func TestStudyValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	st := &Study{ConsultationID: uuid.New(), StudyType: "ECG", Date: "someday"}
	if err := svc.CreateStudy(ctx, st); err == nil {
		t.Error("expected error for malformed date")
	}

	st = &Study{ConsultationID: uuid.New(), Date: "2025-02-12"}
	if err := svc.CreateStudy(ctx, st); err == nil {
		t.Error("expected error for missing study_type")
	}
}

func TestListConsultationsByRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec := validRecord()
	if err := svc.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	for _, date := range []string{"2025-02-10", "2025-03-05"} {
		if err := svc.CreateConsultation(ctx, &Consultation{RecordID: rec.ID, Date: date}); err != nil {
			t.Fatalf("CreateConsultation: %v", err)
		}
	}

	items, err := svc.ListConsultations(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ListConsultations: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d consultations, want 2", len(items))
	}
}
