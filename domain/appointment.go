package domain

// Appointment is a scheduled visit. Date is YYYY-MM-DD and Time is HH:MM.
type Appointment struct {
	ID          string `db:"id" json:"id"`
	UserID      string `db:"user_id" json:"userId"`
	PatientName string `db:"patient_name" json:"patientName"`
	Date        string `db:"date" json:"date"`
	Time        string `db:"time" json:"time"`
	Reason      string `db:"reason" json:"reason"`
	CreatedAt   string `db:"created_at" json:"createdAt,omitempty"`
}
