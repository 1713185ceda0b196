package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dentalcare/dentalcare/pkg/clinerr"
)

// PatientChecker verifies that a patient identity exists in the store.
type PatientChecker interface {
	Exists(ctx context.Context, documentID string) (bool, error)
}

// TxRunner executes fn as one atomic unit (see the patient package).
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PassthroughTx runs fn directly, with no transaction demarcation.
func PassthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// chartUpdateReason marks visit records created by standalone chart
// updates, mirroring how those entries appear in the patient's history.
const chartUpdateReason = "Odontogram update"

type Service struct {
	repo     Repository
	patients PatientChecker
	tx       TxRunner
}

func NewService(repo Repository, patients PatientChecker, tx TxRunner) *Service {
	return &Service{repo: repo, patients: patients, tx: tx}
}

// checkPatient enforces that the record's mandatory patient reference
// resolves to a stored patient.
func (s *Service) checkPatient(ctx context.Context, patientID string) error {
	if patientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return fmt.Errorf("resolve patient %s: %w", patientID, err)
	}
	if !ok {
		return clinerr.Consistency("visit record references unknown patient %s", patientID)
	}
	return nil
}

func (s *Service) CreateVisitRecord(ctx context.Context, v *VisitRecord) error {
	if err := s.checkPatient(ctx, v.PatientID); err != nil {
		return err
	}
	return s.repo.Create(ctx, v)
}

// CreateVisitRecordWithChart creates the record and the chart it owns
// as one atomic unit, so ownership is never observable half-written.
func (s *Service) CreateVisitRecordWithChart(ctx context.Context, v *VisitRecord, toothStates json.RawMessage, observations *string) error {
	if err := s.checkPatient(ctx, v.PatientID); err != nil {
		return err
	}
	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, v); err != nil {
			return err
		}
		chart := &Chart{
			VisitRecordID: v.ID,
			ToothStates:   toothStates,
			Observations:  observations,
		}
		if err := s.repo.CreateChart(ctx, chart); err != nil {
			return err
		}
		v.Chart = chart
		return nil
	})
}

func (s *Service) ListVisitRecords(ctx context.Context, limit, offset int) ([]*VisitRecord, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) GetVisitRecord(ctx context.Context, id int64) (*VisitRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) EditVisitRecord(ctx context.Context, v *VisitRecord) error {
	if err := s.checkPatient(ctx, v.PatientID); err != nil {
		return err
	}
	return s.repo.Update(ctx, v)
}

// DeleteVisitRecord removes the record and, transitively, its chart.
func (s *Service) DeleteVisitRecord(ctx context.Context, id int64) error {
	return s.tx(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}

// ListVisitRecordsForPatient returns the patient's history ordered by
// visit number, unnumbered records last in store order.
func (s *Service) ListVisitRecordsForPatient(ctx context.Context, patientID string) ([]*VisitRecord, error) {
	records, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	SortByVisitNumber(records)
	return records, nil
}

// GetCurrentChart resolves the chart representing the patient's
// current tooth state. A patient with no charted records yields
// (nil, nil): absence is a valid answer, not a failure.
func (s *Service) GetCurrentChart(ctx context.Context, patientID string) (*Chart, error) {
	records, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return CurrentChart(records), nil
}

// UpdateChart records a new odontogram for the patient. Chart history
// is append-only: the update creates a fresh visit record owning the
// new chart rather than editing a prior one, so every past state stays
// reachable through the history.
func (s *Service) UpdateChart(ctx context.Context, patientID string, toothStates json.RawMessage, observations *string) (*VisitRecord, error) {
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, err
	}
	now := time.Now()
	v := &VisitRecord{
		PatientID:  patientID,
		RecordDate: &now,
		Reason:     chartUpdateReason,
	}
	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, v); err != nil {
			return err
		}
		chart := &Chart{
			VisitRecordID: v.ID,
			ToothStates:   toothStates,
			Observations:  observations,
		}
		if err := s.repo.CreateChart(ctx, chart); err != nil {
			return err
		}
		v.Chart = chart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
