package doctor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type mockRepo struct {
	doctors      map[uuid.UUID]*Doctor
	appointments map[uuid.UUID]int

	getErr    error
	deleteErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		doctors:      make(map[uuid.UUID]*Doctor),
		appointments: make(map[uuid.UUID]int),
	}
}

func (m *mockRepo) Create(_ context.Context, d *Doctor) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	d, ok := m.doctors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockRepo) Update(_ context.Context, d *Doctor) (bool, error) {
	if _, ok := m.doctors[d.ID]; !ok {
		return false, nil
	}
	m.doctors[d.ID] = d
	return true, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	if _, ok := m.doctors[id]; !ok {
		return false, nil
	}
	delete(m.doctors, id)
	return true, nil
}

func (m *mockRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Doctor, int, error) {
	var docs []*Doctor
	for _, d := range m.doctors {
		docs = append(docs, d)
	}
	return docs, len(docs), nil
}

func (m *mockRepo) SearchByDNI(_ context.Context, dni string, limit, offset int) ([]*Doctor, int, error) {
	var docs []*Doctor
	for _, d := range m.doctors {
		if strings.Contains(d.DNI, dni) {
			docs = append(docs, d)
		}
	}
	return docs, len(docs), nil
}

func (m *mockRepo) SearchByLastName(_ context.Context, lastName string, limit, offset int) ([]*Doctor, int, error) {
	var docs []*Doctor
	for _, d := range m.doctors {
		if strings.Contains(strings.ToLower(d.LastName), strings.ToLower(lastName)) {
			docs = append(docs, d)
		}
	}
	return docs, len(docs), nil
}

func (m *mockRepo) ComboList(_ context.Context) ([]*ComboItem, error) {
	var items []*ComboItem
	for _, d := range m.doctors {
		items = append(items, &ComboItem{ID: d.ID, FullName: d.LastName + ", " + d.FirstName})
	}
	return items, nil
}

func (m *mockRepo) CountAppointments(_ context.Context, doctorID uuid.UUID) (int, error) {
	return m.appointments[doctorID], nil
}

func validDoctor() *Doctor {
	return &Doctor{DNI: "22333444", License: "MP-1234", LastName: "House", FirstName: "Gregorio", Specialty: "Cardiología"}
}

func TestCreateDoctor(t *testing.T) {
	svc := NewService(newMockRepo())

	d := validDoctor()
	if err := svc.CreateDoctor(context.Background(), d); err != nil {
		t.Fatalf("CreateDoctor() error: %v", err)
	}
	if d.ID == uuid.Nil {
		t.Error("expected a server-assigned id")
	}

	got, err := svc.GetDoctor(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetDoctor() error: %v", err)
	}
	if got.License != "MP-1234" {
		t.Errorf("License = %q, want MP-1234", got.License)
	}
}

func TestCreateDoctor_Validation(t *testing.T) {
	svc := NewService(newMockRepo())

	mutations := []func(*Doctor){
		func(d *Doctor) { d.DNI = "" },
		func(d *Doctor) { d.License = "" },
		func(d *Doctor) { d.LastName = "" },
		func(d *Doctor) { d.FirstName = "" },
		func(d *Doctor) { d.Specialty = "" },
	}
	for i, mutate := range mutations {
		d := validDoctor()
		mutate(d)
		if err := svc.CreateDoctor(context.Background(), d); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestUpdateDoctor_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	d := validDoctor()
	d.ID = uuid.New()
	if err := svc.UpdateDoctor(context.Background(), d); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteDoctor_WithAppointments(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	d := validDoctor()
	if err := svc.CreateDoctor(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	repo.appointments[d.ID] = 1

	if err := svc.DeleteDoctor(context.Background(), d.ID); err != ErrHasAppointments {
		t.Errorf("error = %v, want ErrHasAppointments", err)
	}
	if _, ok := repo.doctors[d.ID]; !ok {
		t.Error("doctor row must remain after refused delete")
	}
}

func TestDeleteDoctor_NoDependents(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	d := validDoctor()
	if err := svc.CreateDoctor(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteDoctor(context.Background(), d.ID); err != nil {
		t.Fatalf("DeleteDoctor() error: %v", err)
	}
	if len(repo.doctors) != 0 {
		t.Error("doctor row still present after delete")
	}
}

func TestGetDoctor_RepoFailureIsNotNotFound(t *testing.T) {
	repo := newMockRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewService(repo)

	_, err := svc.GetDoctor(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, must not be ErrNotFound", err)
	}
}

func TestDeleteDoctor_ForeignKeyBackstop(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	d := validDoctor()
	if err := svc.CreateDoctor(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	repo.deleteErr = &pgconn.PgError{Code: "23503"}

	if err := svc.DeleteDoctor(context.Background(), d.ID); err != ErrHasAppointments {
		t.Errorf("error = %v, want ErrHasAppointments", err)
	}
}

func TestSearchDoctorsByLastName(t *testing.T) {
	svc := NewService(newMockRepo())

	d := validDoctor()
	if err := svc.CreateDoctor(context.Background(), d); err != nil {
		t.Fatal(err)
	}

	docs, total, err := svc.SearchDoctorsByLastName(context.Background(), "hou", 50, 0)
	if err != nil {
		t.Fatalf("SearchDoctorsByLastName() error: %v", err)
	}
	if total != 1 || len(docs) != 1 {
		t.Errorf("search returned %d docs (total %d), want 1", len(docs), total)
	}
}
