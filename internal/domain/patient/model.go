package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. InsurancePlanID is nullable: a patient
// without a plan is self-pay ("Particular").
type Patient struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	DNI             string     `db:"dni" json:"dni"`
	LastName        string     `db:"last_name" json:"last_name"`
	FirstName       string     `db:"first_name" json:"first_name"`
	Phone           *string    `db:"phone" json:"phone,omitempty"`
	Email           *string    `db:"email" json:"email,omitempty"`
	BirthDate       *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Address         *string    `db:"address" json:"address,omitempty"`
	InsurancePlanID *uuid.UUID `db:"insurance_plan_id" json:"insurance_plan_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Row is the list projection: patient fields plus the resolved insurance
// plan display name, "Particular" when the patient is self-pay.
type Row struct {
	ID            uuid.UUID  `json:"id"`
	DNI           string     `json:"dni"`
	LastName      string     `json:"last_name"`
	FirstName     string     `json:"first_name"`
	Phone         *string    `json:"phone,omitempty"`
	Email         *string    `json:"email,omitempty"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	Address       *string    `json:"address,omitempty"`
	InsurancePlan string     `json:"insurance_plan"`
}

// ComboItem is the (id, "Last, First") projection used to populate patient
// selectors.
type ComboItem struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}
