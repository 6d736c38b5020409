package billing

import (
	"context"

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

const rowSelect = `
	SELECT i.id, i.appointment_id, to_char(i.issue_date, 'YYYY-MM-DD'),
	       i.amount, i.notes, i.paid,
	       p.last_name || ', ' || p.first_name AS patient_name,
	       d.last_name || ', ' || d.first_name AS doctor_name,
	       CASE WHEN a.self_pay THEN 'Particular'
	            ELSE COALESCE(ip.name, 'Particular') END AS payment_type
	FROM invoice i
	JOIN appointment a ON i.appointment_id = a.id
	JOIN patient p ON a.patient_id = p.id
	JOIN doctor d ON a.doctor_id = d.id
	LEFT JOIN insurance_plan ip ON p.insurance_plan_id = ip.id`

func (r *repoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice (id, appointment_id, issue_date, amount, notes, paid)
		VALUES ($1,$2,$3::date,$4,$5,$6)`,
		inv.ID, inv.AppointmentID, inv.IssueDate, inv.Amount, inv.Notes, inv.Paid,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv Invoice
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, appointment_id, to_char(issue_date, 'YYYY-MM-DD'),
		       amount, notes, paid, created_at, updated_at
		FROM invoice WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.AppointmentID, &inv.IssueDate, &inv.Amount,
		&inv.Notes, &inv.Paid, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repoPG) Update(ctx context.Context, inv *Invoice) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoice SET
			appointment_id=$2, issue_date=$3::date, amount=$4, notes=$5, paid=$6,
			updated_at=NOW()
		WHERE id = $1`,
		inv.ID, inv.AppointmentID, inv.IssueDate, inv.Amount, inv.Notes, inv.Paid,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoice WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE invoice SET paid = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Row, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoice`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		rowSelect+` ORDER BY i.issue_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.AppointmentID, &row.IssueDate,
			&row.Amount, &row.Notes, &row.Paid,
			&row.PatientName, &row.DoctorName, &row.PaymentType); err != nil {
			return nil, 0, err
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *repoPG) ListUnbilled(ctx context.Context) ([]*UnbilledAppointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, to_char(a.date, 'YYYY-MM-DD'), to_char(a.time, 'HH24:MI'),
		       p.last_name || ', ' || p.first_name AS patient_name,
		       d.last_name || ', ' || d.first_name AS doctor_name,
		       CASE WHEN a.self_pay THEN 'Particular'
		            ELSE COALESCE(ip.name, 'Particular') END AS payment_type
		FROM appointment a
		JOIN patient p ON a.patient_id = p.id
		JOIN doctor d ON a.doctor_id = d.id
		LEFT JOIN insurance_plan ip ON p.insurance_plan_id = ip.id
		WHERE a.id NOT IN (SELECT appointment_id FROM invoice)
		ORDER BY a.date, a.time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*UnbilledAppointment
	for rows.Next() {
		var u UnbilledAppointment
		if err := rows.Scan(&u.AppointmentID, &u.Date, &u.Time,
			&u.PatientName, &u.DoctorName, &u.PaymentType); err != nil {
			return nil, err
		}
		result = append(result, &u)
	}
	return result, rows.Err()
}

func (r *repoPG) Report(ctx context.Context, dateFrom, dateTo string) ([]*ReportRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT CASE WHEN a.self_pay THEN 'Particular'
		            ELSE COALESCE(ip.name, 'Particular') END AS payment_type,
		       SUM(i.amount) AS total_amount,
		       COUNT(i.id) AS invoice_count
		FROM invoice i
		JOIN appointment a ON i.appointment_id = a.id
		JOIN patient p ON a.patient_id = p.id
		LEFT JOIN insurance_plan ip ON p.insurance_plan_id = ip.id
		WHERE i.issue_date BETWEEN $1::date AND $2::date
		GROUP BY payment_type
		ORDER BY total_amount DESC`, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ReportRow
	for rows.Next() {
		var rr ReportRow
		if err := rows.Scan(&rr.PaymentType, &rr.TotalAmount, &rr.InvoiceCount); err != nil {
			return nil, err
		}
		result = append(result, &rr)
	}
	return result, rows.Err()
}

func (r *repoPG) CountByAppointment(ctx context.Context, appointmentID, excludeID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM invoice WHERE appointment_id = $1 AND id <> $2`,
		appointmentID, excludeID,
	).Scan(&count)
	return count, err
}
