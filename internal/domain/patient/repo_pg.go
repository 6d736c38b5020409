package patient

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

const patientCols = `id, dni, last_name, first_name, phone, email, birth_date, address,
	insurance_plan_id, created_at, updated_at`

const rowSelect = `
	SELECT p.id, p.dni, p.last_name, p.first_name, p.phone, p.email,
	       p.birth_date, p.address,
	       COALESCE(ip.name, 'Particular') AS insurance_plan
	FROM patient p
	LEFT JOIN insurance_plan ip ON p.insurance_plan_id = ip.id`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, dni, last_name, first_name, phone, email, birth_date, address, insurance_plan_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.DNI, p.LastName, p.FirstName, p.Phone, p.Email, p.BirthDate, p.Address, p.InsurancePlanID,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id,
	).Scan(&p.ID, &p.DNI, &p.LastName, &p.FirstName, &p.Phone, &p.Email,
		&p.BirthDate, &p.Address, &p.InsurancePlanID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			dni=$2, last_name=$3, first_name=$4, phone=$5, email=$6,
			birth_date=$7, address=$8, insurance_plan_id=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.DNI, p.LastName, p.FirstName, p.Phone, p.Email, p.BirthDate, p.Address, p.InsurancePlanID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Row, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		rowSelect+` ORDER BY p.last_name, p.first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRows(rows, total)
}

func (r *repoPG) SearchByDNI(ctx context.Context, dni string, limit, offset int) ([]*Row, int, error) {
	pattern := "%" + dni + "%"
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE dni LIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		rowSelect+` WHERE p.dni LIKE $1 ORDER BY p.last_name, p.first_name LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRows(rows, total)
}

func (r *repoPG) ComboList(ctx context.Context) ([]*ComboItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, last_name || ', ' || first_name AS full_name
		FROM patient
		ORDER BY last_name, first_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ComboItem
	for rows.Next() {
		var it ComboItem
		if err := rows.Scan(&it.ID, &it.FullName); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) CountByDNI(ctx context.Context, dni string, excludeID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE dni = $1 AND id <> $2`, dni, excludeID,
	).Scan(&count)
	return count, err
}

func (r *repoPG) CountAppointments(ctx context.Context, patientID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID,
	).Scan(&count)
	return count, err
}

func collectRows(rows pgx.Rows, total int) ([]*Row, int, error) {
	var result []*Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.DNI, &row.LastName, &row.FirstName,
			&row.Phone, &row.Email, &row.BirthDate, &row.Address, &row.InsurancePlan); err != nil {
			return nil, 0, err
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}
