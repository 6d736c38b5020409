package medicalrecord

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica/clinica/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

type recordRepoPG struct {
	pool *pgxpool.Pool
}

func NewRecordRepo(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, tx, err := db.WithTx(ctx, r.pool)
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const recordCols = `id, patient_id, doctor_id, to_char(opened_date, 'YYYY-MM-DD'),
	blood_type, allergies, personal_history, family_history, current_medication,
	created_at, updated_at`

func (r *recordRepoPG) scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var rec MedicalRecord
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.OpenedDate,
		&rec.BloodType, &rec.Allergies, &rec.PersonalHistory, &rec.FamilyHistory,
		&rec.CurrentMedication, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recordRepoPG) Create(ctx context.Context, rec *MedicalRecord) error {
	rec.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO medical_record (id, patient_id, doctor_id, opened_date,
			blood_type, allergies, personal_history, family_history, current_medication)
		VALUES ($1,$2,$3,$4::date,$5,$6,$7,$8,$9)`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.OpenedDate,
		rec.BloodType, rec.Allergies, rec.PersonalHistory, rec.FamilyHistory, rec.CurrentMedication,
	)
	return err
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return r.scanRecord(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_record WHERE id = $1`, id))
}

func (r *recordRepoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*MedicalRecord, error) {
	return r.scanRecord(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_record WHERE patient_id = $1`, patientID))
}

func (r *recordRepoPG) Update(ctx context.Context, rec *MedicalRecord) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE medical_record SET
			patient_id=$2, doctor_id=$3, opened_date=$4::date, blood_type=$5,
			allergies=$6, personal_history=$7, family_history=$8,
			current_medication=$9, updated_at=NOW()
		WHERE id = $1`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.OpenedDate, rec.BloodType,
		rec.Allergies, rec.PersonalHistory, rec.FamilyHistory, rec.CurrentMedication,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM medical_record WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *recordRepoPG) List(ctx context.Context, limit, offset int) ([]*RecordRow, int, error) {
	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM medical_record`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `
		SELECT m.id, m.patient_id,
		       p.last_name || ', ' || p.first_name AS patient_name,
		       COALESCE(d.last_name || ', ' || d.first_name, '') AS doctor_name,
		       to_char(m.opened_date, 'YYYY-MM-DD'), m.blood_type
		FROM medical_record m
		JOIN patient p ON m.patient_id = p.id
		LEFT JOIN doctor d ON m.doctor_id = d.id
		ORDER BY m.opened_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*RecordRow
	for rows.Next() {
		var row RecordRow
		if err := rows.Scan(&row.ID, &row.PatientID, &row.PatientName,
			&row.DoctorName, &row.OpenedDate, &row.BloodType); err != nil {
			return nil, 0, err
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *recordRepoPG) ListPatientsWithout(ctx context.Context) ([]*PatientWithoutRecord, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT p.id, p.last_name || ', ' || p.first_name AS patient_name
		FROM patient p
		WHERE p.id NOT IN (SELECT patient_id FROM medical_record)
		ORDER BY p.last_name, p.first_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*PatientWithoutRecord
	for rows.Next() {
		var pw PatientWithoutRecord
		if err := rows.Scan(&pw.PatientID, &pw.PatientName); err != nil {
			return nil, err
		}
		result = append(result, &pw)
	}
	return result, rows.Err()
}

func (r *recordRepoPG) CountByPatient(ctx context.Context, patientID, excludeID uuid.UUID) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_record WHERE patient_id = $1 AND id <> $2`,
		patientID, excludeID,
	).Scan(&count)
	return count, err
}

func (r *recordRepoPG) CountConsultations(ctx context.Context, recordID uuid.UUID) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultation WHERE record_id = $1`, recordID,
	).Scan(&count)
	return count, err
}

type consultationRepoPG struct {
	pool *pgxpool.Pool
}

func NewConsultationRepo(pool *pgxpool.Pool) ConsultationRepository {
	return &consultationRepoPG{pool: pool}
}

func (r *consultationRepoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, tx, err := db.WithTx(ctx, r.pool)
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const consultationCols = `id, record_id, to_char(date, 'YYYY-MM-DD'),
	diagnosis, treatment, notes, created_at, updated_at`

func (r *consultationRepoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO consultation (id, record_id, date, diagnosis, treatment, notes)
		VALUES ($1,$2,$3::date,$4,$5,$6)`,
		c.ID, c.RecordID, c.Date, c.Diagnosis, c.Treatment, c.Notes,
	)
	return err
}

func (r *consultationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	var c Consultation
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultation WHERE id = $1`, id,
	).Scan(&c.ID, &c.RecordID, &c.Date, &c.Diagnosis, &c.Treatment, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *consultationRepoPG) Update(ctx context.Context, c *Consultation) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE consultation SET
			date=$2::date, diagnosis=$3, treatment=$4, notes=$5, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Date, c.Diagnosis, c.Treatment, c.Notes,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *consultationRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM consultation WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *consultationRepoPG) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*Consultation, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+consultationCols+` FROM consultation WHERE record_id = $1 ORDER BY date DESC`,
		recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Consultation
	for rows.Next() {
		var c Consultation
		if err := rows.Scan(&c.ID, &c.RecordID, &c.Date, &c.Diagnosis,
			&c.Treatment, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}

func (r *consultationRepoPG) CountChildren(ctx context.Context, consultationID uuid.UUID) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM prescription WHERE consultation_id = $1)
		     + (SELECT COUNT(*) FROM study WHERE consultation_id = $1)`,
		consultationID,
	).Scan(&count)
	return count, err
}

type prescriptionRepoPG struct {
	pool *pgxpool.Pool
}

func NewPrescriptionRepo(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO prescription (id, consultation_id, medication, dose, frequency, duration)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.ConsultationID, p.Medication, p.Dose, p.Frequency, p.Duration,
	)
	return err
}

func (r *prescriptionRepoPG) Update(ctx context.Context, p *Prescription) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE prescription SET medication=$2, dose=$3, frequency=$4, duration=$5
		WHERE id = $1`,
		p.ID, p.Medication, p.Dose, p.Frequency, p.Duration,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *prescriptionRepoPG) ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*Prescription, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, consultation_id, medication, dose, frequency, duration, created_at
		FROM prescription WHERE consultation_id = $1 ORDER BY created_at`,
		consultationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Prescription
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.ConsultationID, &p.Medication, &p.Dose,
			&p.Frequency, &p.Duration, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

type studyRepoPG struct {
	pool *pgxpool.Pool
}

func NewStudyRepo(pool *pgxpool.Pool) StudyRepository {
	return &studyRepoPG{pool: pool}
}

func (r *studyRepoPG) Create(ctx context.Context, s *Study) error {
	s.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO study (id, consultation_id, study_type, date, results)
		VALUES ($1,$2,$3,$4::date,$5)`,
		s.ID, s.ConsultationID, s.StudyType, s.Date, s.Results,
	)
	return err
}

func (r *studyRepoPG) Update(ctx context.Context, s *Study) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE study SET study_type=$2, date=$3::date, results=$4
		WHERE id = $1`,
		s.ID, s.StudyType, s.Date, s.Results,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *studyRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM study WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *studyRepoPG) ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*Study, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, consultation_id, study_type, to_char(date, 'YYYY-MM-DD'), results, created_at
		FROM study WHERE consultation_id = $1 ORDER BY date DESC`,
		consultationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Study
	for rows.Next() {
		var s Study
		if err := rows.Scan(&s.ID, &s.ConsultationID, &s.StudyType, &s.Date,
			&s.Results, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}
