package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/dentalcare/dentalcare/pkg/clinerr"
)

// PatientChecker verifies that a patient identity exists in the store.
// Implemented by the patient repository; declared here so this package
// does not depend on the patient package.
type PatientChecker interface {
	Exists(ctx context.Context, documentID string) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientChecker
}

func NewService(repo Repository, patients PatientChecker) *Service {
	return &Service{repo: repo, patients: patients}
}

// checkPatientRef enforces that a non-null patient reference resolves.
func (s *Service) checkPatientRef(ctx context.Context, patientID *string) error {
	if patientID == nil {
		return nil
	}
	ok, err := s.patients.Exists(ctx, *patientID)
	if err != nil {
		return fmt.Errorf("resolve patient %s: %w", *patientID, err)
	}
	if !ok {
		return clinerr.Consistency("appointment references unknown patient %s", *patientID)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	if !a.Status.Valid() {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	if err := s.checkPatientRef(ctx, a.PatientID); err != nil {
		return err
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Edit(ctx context.Context, a *Appointment) error {
	if a.Status != "" && !a.Status.Valid() {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	if err := s.checkPatientRef(ctx, a.PatientID); err != nil {
		return err
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListOnDate returns appointments scheduled on the given day,
// ignoring any time-of-day component of date.
func (s *Service) ListOnDate(ctx context.Context, date time.Time) ([]*Appointment, error) {
	return s.repo.ListOnDate(ctx, date)
}

func (s *Service) ListForPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
