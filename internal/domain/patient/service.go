package patient

import (
	"context"
	"fmt"
)

// HistoryPurger removes a patient's visit records and their charts.
// Implemented by the history repository.
type HistoryPurger interface {
	DeleteByPatient(ctx context.Context, patientID string) error
}

// TxRunner executes fn as one atomic unit: every store call made with
// the context passed to fn commits or rolls back together.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PassthroughTx is a TxRunner for stores that need no transaction
// demarcation (tests, single-call operations).
func PassthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	repo    Repository
	sync    *Synchronizer
	history HistoryPurger
	tx      TxRunner
}

func NewService(repo Repository, sync *Synchronizer, history HistoryPurger, tx TxRunner) *Service {
	return &Service{repo: repo, sync: sync, history: history, tx: tx}
}

// CreatePatient persists the patient and claims the listed
// appointments for it in one atomic unit.
func (s *Service) CreatePatient(ctx context.Context, p *Patient, appointmentIDs []int64) error {
	if p.DocumentID == "" {
		return fmt.Errorf("document_id is required")
	}
	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.sync.OnCreate(ctx, p.DocumentID, appointmentIDs)
	})
}

func (s *Service) GetPatient(ctx context.Context, documentID string) (*Patient, error) {
	return s.repo.GetByID(ctx, documentID)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SearchPatients(ctx context.Context, term string) ([]*Patient, error) {
	return s.repo.Search(ctx, term)
}

// EditPatient updates the patient's attributes and reconciles its
// appointment set, all in one atomic unit. The patient must still
// exist in the store.
func (s *Service) EditPatient(ctx context.Context, p *Patient, appointmentIDs []int64) error {
	return s.tx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, p.DocumentID); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return s.sync.OnEdit(ctx, p.DocumentID, appointmentIDs)
	})
}

// DeletePatient detaches the patient's appointments, deletes its visit
// records and their charts, then removes the patient itself, all in
// one atomic unit. Appointments survive with a null patient reference.
func (s *Service) DeletePatient(ctx context.Context, documentID string) error {
	return s.tx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, documentID); err != nil {
			return err
		}
		if err := s.sync.OnDelete(ctx, documentID); err != nil {
			return err
		}
		if err := s.history.DeleteByPatient(ctx, documentID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, documentID)
	})
}
