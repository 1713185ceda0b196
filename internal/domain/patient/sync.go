package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/dentalcare/dentalcare/internal/domain/appointment"
	"github.com/dentalcare/dentalcare/pkg/clinerr"
)

// AppointmentLinker is the slice of the appointment repository the
// synchronizer needs to keep the patient<->appointment association
// consistent. The appointment's patient_id column is the single source
// of truth, so claiming an appointment for one patient structurally
// removes it from any prior owner's derived collection.
type AppointmentLinker interface {
	GetByID(ctx context.Context, id int64) (*appointment.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]*appointment.Appointment, error)
	ClaimForPatient(ctx context.Context, id int64, patientID string) error
	Detach(ctx context.Context, id int64) error
	DetachAllForPatient(ctx context.Context, patientID string) error
}

// Synchronizer maintains the patient<->appointment association across
// patient create, edit and delete. Callers must run each method inside
// one transaction together with the patient write it accompanies.
type Synchronizer struct {
	appointments AppointmentLinker
}

func NewSynchronizer(appointments AppointmentLinker) *Synchronizer {
	return &Synchronizer{appointments: appointments}
}

// resolve re-reads the authoritative stored appointment; a supplied id
// that does not resolve makes the whole operation a consistency failure.
func (s *Synchronizer) resolve(ctx context.Context, id int64) (*appointment.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if errors.Is(err, clinerr.ErrNotFound) {
		return nil, clinerr.Consistency("appointment %d cannot be resolved", id)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve appointment %d: %w", id, err)
	}
	return a, nil
}

// OnCreate claims every listed appointment for the newly created
// patient. An appointment previously owned by another patient is
// simply reassigned; the most recently specified owner wins.
func (s *Synchronizer) OnCreate(ctx context.Context, patientID string, appointmentIDs []int64) error {
	for _, id := range appointmentIDs {
		if _, err := s.resolve(ctx, id); err != nil {
			return err
		}
		if err := s.appointments.ClaimForPatient(ctx, id, patientID); err != nil {
			return err
		}
	}
	return nil
}

// OnEdit reconciles the patient's stored appointment set with the
// newly supplied one. Appointments dropped from the set are detached,
// not deleted; appointments added are claimed, stealing from a prior
// owner if necessary; the intersection is left untouched.
func (s *Synchronizer) OnEdit(ctx context.Context, patientID string, newIDs []int64) error {
	old, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return fmt.Errorf("load appointments for patient %s: %w", patientID, err)
	}

	oldSet := make(map[int64]bool, len(old))
	for _, a := range old {
		oldSet[a.ID] = true
	}
	newSet := make(map[int64]bool, len(newIDs))
	for _, id := range newIDs {
		newSet[id] = true
	}

	for _, a := range old {
		if !newSet[a.ID] {
			if err := s.appointments.Detach(ctx, a.ID); err != nil {
				return err
			}
		}
	}

	for _, id := range newIDs {
		if oldSet[id] {
			continue
		}
		if _, err := s.resolve(ctx, id); err != nil {
			return err
		}
		if err := s.appointments.ClaimForPatient(ctx, id, patientID); err != nil {
			return err
		}
	}
	return nil
}

// OnDelete detaches every appointment still referencing the patient so
// the subsequent patient delete leaves no dangling references behind.
func (s *Synchronizer) OnDelete(ctx context.Context, patientID string) error {
	return s.appointments.DetachAllForPatient(ctx, patientID)
}
