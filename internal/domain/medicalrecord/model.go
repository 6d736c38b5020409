package medicalrecord

import (
	"time"

	"github.com/google/uuid"
)

// MedicalRecord maps to the medical_record table. Each patient has at most
// one record; DoctorID is the clinician who opened it and may be null.
type MedicalRecord struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID          *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	OpenedDate        string     `db:"opened_date" json:"opened_date"`
	BloodType         *string    `db:"blood_type" json:"blood_type,omitempty"`
	Allergies         *string    `db:"allergies" json:"allergies,omitempty"`
	PersonalHistory   *string    `db:"personal_history" json:"personal_history,omitempty"`
	FamilyHistory     *string    `db:"family_history" json:"family_history,omitempty"`
	CurrentMedication *string    `db:"current_medication" json:"current_medication,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// RecordRow is the list projection with resolved patient and doctor names.
type RecordRow struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	DoctorName  string    `json:"doctor_name"`
	OpenedDate  string    `json:"opened_date"`
	BloodType   *string   `json:"blood_type,omitempty"`
}

// Consultation is a visit entry under a medical record. It is the parent of
// prescriptions and studies.
type Consultation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RecordID  uuid.UUID `db:"record_id" json:"record_id"`
	Date      string    `db:"date" json:"date"`
	Diagnosis *string   `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment *string   `db:"treatment" json:"treatment,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Prescription struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConsultationID uuid.UUID `db:"consultation_id" json:"consultation_id"`
	Medication     string    `db:"medication" json:"medication"`
	Dose           *string   `db:"dose" json:"dose,omitempty"`
	Frequency      *string   `db:"frequency" json:"frequency,omitempty"`
	Duration       *string   `db:"duration" json:"duration,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type Study struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConsultationID uuid.UUID `db:"consultation_id" json:"consultation_id"`
	StudyType      string    `db:"study_type" json:"study_type"`
	Date           string    `db:"date" json:"date"`
	Results        *string   `db:"results" json:"results,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PatientWithoutRecord is the (id, "Last, First") projection of patients
// that can still receive a medical record.
type PatientWithoutRecord struct {
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
}
