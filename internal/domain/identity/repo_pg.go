package identity

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

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO app_user (id, username, password_hash, role_id, doctor_id)
		VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Username, u.PasswordHash, u.RoleID, u.DoctorID,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, username, password_hash, role_id, doctor_id, created_at, updated_at
		FROM app_user WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.RoleID, &u.DoctorID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update never touches the password column; that path goes through
// UpdatePassword.
func (r *repoPG) Update(ctx context.Context, u *User) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE app_user SET username=$2, role_id=$3, doctor_id=$4, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Username, u.RoleID, u.DoctorID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE app_user SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*UserRow, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM app_user`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `
		SELECT u.id, u.username, r.name,
		       COALESCE(d.last_name || ', ' || d.first_name, 'No asignado') AS doctor_name
		FROM app_user u
		JOIN role r ON u.role_id = r.id
		LEFT JOIN doctor d ON u.doctor_id = d.id
		ORDER BY u.username
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*UserRow
	for rows.Next() {
		var row UserRow
		if err := rows.Scan(&row.ID, &row.Username, &row.RoleName, &row.DoctorName); err != nil {
			return nil, 0, err
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *repoPG) CountByUsername(ctx context.Context, username string, excludeID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM app_user WHERE username = $1 AND id <> $2`,
		username, excludeID,
	).Scan(&count)
	return count, err
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*loginRow, error) {
	var row loginRow
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT u.id, u.username, u.password_hash, r.name,
		       COALESCE(d.last_name || ', ' || d.first_name, 'Sistema') AS display_name
		FROM app_user u
		JOIN role r ON u.role_id = r.id
		LEFT JOIN doctor d ON u.doctor_id = d.id
		WHERE u.username = $1`, username,
	).Scan(&row.ID, &row.Username, &row.PasswordHash, &row.RoleName, &row.DisplayName)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repoPG) ListRoles(ctx context.Context) ([]*Role, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM role ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		result = append(result, &role)
	}
	return result, rows.Err()
}
