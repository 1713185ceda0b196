package appointment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id int64) error
	ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error)
	ListOnDate(ctx context.Context, date time.Time) ([]*Appointment, error)

	// Relationship maintenance. Claim points the appointment at the
	// given patient, implicitly removing it from any prior owner;
	// Detach clears the reference without deleting the appointment.
	ClaimForPatient(ctx context.Context, id int64, patientID string) error
	Detach(ctx context.Context, id int64) error
	DetachAllForPatient(ctx context.Context, patientID string) error

	CountOnDate(ctx context.Context, date time.Time) (int, error)
	CountByStatus(ctx context.Context, s Status) (int, error)
}
