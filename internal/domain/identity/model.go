package identity

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the app_user table. DoctorID binds a login to a clinician's
// own records and may be null for non-clinical accounts.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	RoleID       uuid.UUID  `db:"role_id" json:"role_id"`
	DoctorID     *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserRow is the list projection: username plus resolved role and assigned
// doctor names. DoctorName is "No asignado" for accounts without a doctor.
type UserRow struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	RoleName   string    `json:"role_name"`
	DoctorName string    `json:"doctor_name"`
}

// Role is fixed reference data.
type Role struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

// Verified carries the four identifying fields a successful login returns.
// DisplayName is the linked doctor's "Last, First" or "Sistema".
type Verified struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	RoleName    string    `json:"role_name"`
	DisplayName string    `json:"display_name"`
}
