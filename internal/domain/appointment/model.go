package appointment

import "time"

// Status of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Valid reports whether s is one of the closed status set.
func (s Status) Valid() bool { return validStatuses[s] }

// Appointment maps to the appointment table. PatientID is the forward
// reference and the single source of truth for the patient association;
// a patient's appointment list is always derived from it, never stored.
type Appointment struct {
	ID        int64     `db:"id" json:"id"`
	Date      time.Time `db:"scheduled_date" json:"date"`
	Time      string    `db:"scheduled_time" json:"time"`
	Reason    string    `db:"reason" json:"reason"`
	Status    Status    `db:"status" json:"status"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	PatientID *string   `db:"patient_id" json:"patient_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
