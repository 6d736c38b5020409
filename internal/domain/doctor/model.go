package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctor table. License is the professional registration
// number (matrícula).
type Doctor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DNI       string    `db:"dni" json:"dni"`
	License   string    `db:"license" json:"license"`
	LastName  string    `db:"last_name" json:"last_name"`
	FirstName string    `db:"first_name" json:"first_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Specialty string    `db:"specialty" json:"specialty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ComboItem is the (id, "Last, First") projection used to populate doctor
// selectors.
type ComboItem struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}
