package appointment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica/clinica/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
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

const rowSelect = `
	SELECT a.id, to_char(a.date, 'YYYY-MM-DD'), to_char(a.time, 'HH24:MI'),
	       p.id, p.last_name || ', ' || p.first_name AS patient_name,
	       d.id, d.last_name || ', ' || d.first_name AS doctor_name,
	       a.reason,
	       CASE WHEN a.self_pay THEN 'Particular' ELSE 'Obra Social' END AS payment_type
	FROM appointment a
	JOIN patient p ON a.patient_id = p.id
	JOIN doctor d ON a.doctor_id = d.id`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, date, time, reason, self_pay)
		VALUES ($1,$2,$3,$4::date,$5::time,$6,$7)`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Reason, a.SelfPay,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI'),
		       reason, self_pay, created_at, updated_at
		FROM appointment WHERE id = $1`, id,
	).Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Reason, &a.SelfPay, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET
			patient_id=$2, doctor_id=$3, date=$4::date, time=$5::time,
			reason=$6, self_pay=$7, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Reason, a.SelfPay,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) List(ctx context.Context, dateFrom, dateTo string, limit, offset int) ([]*Row, int, error) {
	where := []string{}
	args := []interface{}{}
	if dateFrom != "" {
		args = append(args, dateFrom)
		where = append(where, fmt.Sprintf("a.date >= $%d::date", len(args)))
	}
	if dateTo != "" {
		args = append(args, dateTo)
		where = append(where, fmt.Sprintf("a.date <= $%d::date", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment a`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	order := fmt.Sprintf(" ORDER BY a.date, a.time LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, rowSelect+clause+order, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRows(rows, total)
}

func (r *repoPG) ListUpcoming(ctx context.Context, limit, offset int) ([]*Row, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment a WHERE a.date >= CURRENT_DATE`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		rowSelect+` WHERE a.date >= CURRENT_DATE ORDER BY a.date, a.time LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRows(rows, total)
}

func (r *repoPG) CountBySlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment
		WHERE doctor_id = $1 AND date = $2::date AND time = $3::time AND id <> $4`,
		doctorID, date, timeOfDay, excludeID,
	).Scan(&count)
	return count, err
}

func (r *repoPG) CountInvoices(ctx context.Context, appointmentID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM invoice WHERE appointment_id = $1`, appointmentID,
	).Scan(&count)
	return count, err
}

func collectRows(rows pgx.Rows, total int) ([]*Row, int, error) {
	var result []*Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Date, &row.Time,
			&row.PatientID, &row.PatientName, &row.DoctorID, &row.DoctorName,
			&row.Reason, &row.PaymentType); err != nil {
			return nil, 0, err
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}
