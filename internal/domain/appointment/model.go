package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment maps to the appointment table. Date and Time are kept as the
// display strings the clinic works with ("2006-01-02", "15:04"); the columns
// are proper date/time types and the service validates both before any SQL.
// SelfPay mirrors es_particular: the visit is not billed through a plan.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      string    `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	SelfPay   bool      `db:"self_pay" json:"self_pay"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Row is the list projection with resolved names and the payment type label.
type Row struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	DoctorName  string    `json:"doctor_name"`
	Reason      *string   `json:"reason,omitempty"`
	PaymentType string    `json:"payment_type"`
}
