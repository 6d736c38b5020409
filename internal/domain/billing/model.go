package billing

import (
	"time"

	"github.com/google/uuid"
)

// Invoice maps to the invoice table. Each invoice belongs to exactly one
// appointment.
type Invoice struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	IssueDate     string    `db:"issue_date" json:"issue_date"`
	Amount        float64   `db:"amount" json:"amount"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	Paid          bool      `db:"paid" json:"paid"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Row is the list projection: invoice fields plus patient and doctor display
// names and the resolved payment type ("Particular" or the plan name).
type Row struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	IssueDate     string    `json:"issue_date"`
	Amount        float64   `json:"amount"`
	Notes         *string   `json:"notes,omitempty"`
	Paid          bool      `json:"paid"`
	PatientName   string    `json:"patient_name"`
	DoctorName    string    `json:"doctor_name"`
	PaymentType   string    `json:"payment_type"`
}

// ReportRow aggregates billing over a date range for one payer: the plan
// name (or "Particular" for self-pay), total amount and invoice count.
type ReportRow struct {
	PaymentType  string  `json:"payment_type"`
	TotalAmount  float64 `json:"total_amount"`
	InvoiceCount int     `json:"invoice_count"`
}

// UnbilledAppointment is an appointment that no invoice references yet,
// projected for the invoice creation selector.
type UnbilledAppointment struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	PatientName   string    `json:"patient_name"`
	DoctorName    string    `json:"doctor_name"`
	PaymentType   string    `json:"payment_type"`
}
