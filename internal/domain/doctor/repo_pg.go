package doctor

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

const doctorCols = `id, dni, license, last_name, first_name, phone, email, specialty, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, dni, license, last_name, first_name, phone, email, specialty)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.DNI, d.License, d.LastName, d.FirstName, d.Phone, d.Email, d.Specialty,
	)
	return err
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.DNI, &d.License, &d.LastName, &d.FirstName,
		&d.Phone, &d.Email, &d.Specialty, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor SET
			dni=$2, license=$3, last_name=$4, first_name=$5,
			phone=$6, email=$7, specialty=$8, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.DNI, d.License, d.LastName, d.FirstName, d.Phone, d.Email, d.Specialty,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+` FROM doctor ORDER BY last_name, first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDoctors(rows, total)
}

func (r *repoPG) SearchByDNI(ctx context.Context, dni string, limit, offset int) ([]*Doctor, int, error) {
	return r.search(ctx, `dni LIKE $1`, "%"+dni+"%", limit, offset)
}

func (r *repoPG) SearchByLastName(ctx context.Context, lastName string, limit, offset int) ([]*Doctor, int, error) {
	return r.search(ctx, `last_name ILIKE $1`, "%"+lastName+"%", limit, offset)
}

func (r *repoPG) search(ctx context.Context, where, pattern string, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM doctor WHERE `+where, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE `+where+` ORDER BY last_name, first_name LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDoctors(rows, total)
}

func (r *repoPG) ComboList(ctx context.Context) ([]*ComboItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, last_name || ', ' || first_name AS full_name
		FROM doctor
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

func (r *repoPG) CountAppointments(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE doctor_id = $1`, doctorID,
	).Scan(&count)
	return count, err
}

func collectDoctors(rows pgx.Rows, total int) ([]*Doctor, int, error) {
	var result []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.DNI, &d.License, &d.LastName, &d.FirstName,
			&d.Phone, &d.Email, &d.Specialty, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}
