package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// -- Mock Repository --

type mockRepo struct {
	patients     map[uuid.UUID]*Patient
	appointments map[uuid.UUID]int

	getErr    error
	deleteErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients:     make(map[uuid.UUID]*Patient),
		appointments: make(map[uuid.UUID]int),
	}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) (bool, error) {
	if _, ok := m.patients[p.ID]; !ok {
		return false, nil
	}
	m.patients[p.ID] = p
	return true, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	if _, ok := m.patients[id]; !ok {
		return false, nil
	}
	delete(m.patients, id)
	return true, nil
}

func (m *mockRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Row, int, error) {
	var rows []*Row
	for _, p := range m.patients {
		rows = append(rows, &Row{ID: p.ID, DNI: p.DNI, LastName: p.LastName, FirstName: p.FirstName, InsurancePlan: "Particular"})
	}
	return rows, len(rows), nil
}

func (m *mockRepo) SearchByDNI(_ context.Context, dni string, limit, offset int) ([]*Row, int, error) {
	var rows []*Row
	for _, p := range m.patients {
		if p.DNI == dni {
			rows = append(rows, &Row{ID: p.ID, DNI: p.DNI, LastName: p.LastName, FirstName: p.FirstName, InsurancePlan: "Particular"})
		}
	}
	return rows, len(rows), nil
}

func (m *mockRepo) ComboList(_ context.Context) ([]*ComboItem, error) {
	var items []*ComboItem
	for _, p := range m.patients {
		items = append(items, &ComboItem{ID: p.ID, FullName: p.LastName + ", " + p.FirstName})
	}
	return items, nil
}

func (m *mockRepo) CountByDNI(_ context.Context, dni string, excludeID uuid.UUID) (int, error) {
	count := 0
	for _, p := range m.patients {
		if p.DNI == dni && p.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepo) CountAppointments(_ context.Context, patientID uuid.UUID) (int, error) {
	return m.appointments[patientID], nil
}

// -- Tests --

func TestCreatePatient_RoundTrip(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := &Patient{DNI: "30111222", LastName: "Gomez", FirstName: "Ana"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient() error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatal("expected a server-assigned id")
	}

	got, err := svc.GetPatient(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetPatient() error: %v", err)
	}
	if got.LastName != "Gomez" {
		t.Errorf("LastName = %q, want Gomez", got.LastName)
	}
	if got.DNI != "30111222" {
		t.Errorf("DNI = %q, want 30111222", got.DNI)
	}

	rows, total, err := svc.SearchPatientsByDNI(context.Background(), "30111222", 50, 0)
	if err != nil {
		t.Fatalf("SearchPatientsByDNI() error: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Errorf("search returned %d rows (total %d), want exactly 1", len(rows), total)
	}
}

func TestCreatePatient_RequiredFields(t *testing.T) {
	svc := NewService(newMockRepo())

	cases := []*Patient{
		{LastName: "Gomez", FirstName: "Ana"},
		{DNI: "1", FirstName: "Ana"},
		{DNI: "1", LastName: "Gomez"},
	}
	for i, p := range cases {
		if err := svc.CreatePatient(context.Background(), p); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCreatePatient_DuplicateDNI(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	first := &Patient{DNI: "30111222", LastName: "Gomez", FirstName: "Ana"}
	if err := svc.CreatePatient(context.Background(), first); err != nil {
		t.Fatal(err)
	}

	dup := &Patient{DNI: "30111222", LastName: "Perez", FirstName: "Juan"}
	if err := svc.CreatePatient(context.Background(), dup); err != ErrDuplicateDNI {
		t.Errorf("error = %v, want ErrDuplicateDNI", err)
	}
	if len(repo.patients) != 1 {
		t.Errorf("patient count = %d, want 1 (no partial write)", len(repo.patients))
	}
}

func TestUpdatePatient_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())

	p := &Patient{ID: uuid.New(), DNI: "1", LastName: "X", FirstName: "Y"}
	if err := svc.UpdatePatient(context.Background(), p); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdatePatient_KeepsOwnDNI(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := &Patient{DNI: "30111222", LastName: "Gomez", FirstName: "Ana"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	p.Phone = strPtr("555-0101")
	if err := svc.UpdatePatient(context.Background(), p); err != nil {
		t.Errorf("UpdatePatient() with unchanged DNI error: %v", err)
	}
}

func TestDeletePatient_WithAppointments(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := &Patient{DNI: "30111222", LastName: "Gomez", FirstName: "Ana"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	repo.appointments[p.ID] = 2

	if err := svc.DeletePatient(context.Background(), p.ID); err != ErrHasAppointments {
		t.Errorf("error = %v, want ErrHasAppointments", err)
	}
	if _, ok := repo.patients[p.ID]; !ok {
		t.Error("patient row must remain after refused delete")
	}
}

func TestDeletePatient_NoDependents(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := &Patient{DNI: "30111222", LastName: "Gomez", FirstName: "Ana"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeletePatient(context.Background(), p.ID); err != nil {
		t.Fatalf("DeletePatient() error: %v", err)
	}

	rows, _, err := svc.ListPatients(context.Background(), 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if row.ID == p.ID {
			t.Error("deleted patient still present in list")
		}
	}
}

func TestGetPatient_RepoFailureIsNotNotFound(t *testing.T) {
	repo := newMockRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewService(repo)

	_, err := svc.GetPatient(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, must not be ErrNotFound", err)
	}
}

func TestDeletePatient_ForeignKeyBackstop(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := &Patient{DNI: "30111222", LastName: "Gomez", FirstName: "Ana"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	repo.deleteErr = &pgconn.PgError{Code: "23503"}

	if err := svc.DeletePatient(context.Background(), p.ID); err != ErrHasAppointments {
		t.Errorf("error = %v, want ErrHasAppointments", err)
	}
}

func TestDeletePatient_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.DeletePatient(context.Background(), uuid.New()); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func strPtr(s string) *string { return &s }
