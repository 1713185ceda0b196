package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/dentalcare/dentalcare/internal/domain/appointment"
	"github.com/dentalcare/dentalcare/internal/domain/patient"
)

// The service reads across domains through narrow views of each
// repository rather than depending on the full interfaces.

type PatientStats interface {
	Count(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, limit int) ([]*patient.Patient, error)
}

type AppointmentStats interface {
	CountOnDate(ctx context.Context, date time.Time) (int, error)
	CountByStatus(ctx context.Context, s appointment.Status) (int, error)
}

type HistoryStats interface {
	CountInMonth(ctx context.Context, year int, month int) (int, error)
}

// Stats is the practice overview shown on the landing screen.
type Stats struct {
	TotalPatients          int                `json:"total_patients"`
	AppointmentsToday      int                `json:"appointments_today"`
	ConsultationsThisMonth int                `json:"consultations_this_month"`
	PendingAppointments    int                `json:"pending_appointments"`
	RecentPatients         []*patient.Patient `json:"recent_patients"`
}

const recentPatientLimit = 5

type Service struct {
	patients     PatientStats
	appointments AppointmentStats
	history      HistoryStats
	now          func() time.Time
}

func NewService(patients PatientStats, appointments AppointmentStats, history HistoryStats) *Service {
	return &Service{
		patients:     patients,
		appointments: appointments,
		history:      history,
		now:          time.Now,
	}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	out := &Stats{}

	var err error
	if out.TotalPatients, err = s.patients.Count(ctx); err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}
	if out.AppointmentsToday, err = s.appointments.CountOnDate(ctx, now); err != nil {
		return nil, fmt.Errorf("count today's appointments: %w", err)
	}
	if out.ConsultationsThisMonth, err = s.history.CountInMonth(ctx, now.Year(), int(now.Month())); err != nil {
		return nil, fmt.Errorf("count consultations: %w", err)
	}
	if out.PendingAppointments, err = s.appointments.CountByStatus(ctx, appointment.StatusPending); err != nil {
		return nil, fmt.Errorf("count pending appointments: %w", err)
	}
	if out.RecentPatients, err = s.patients.ListRecent(ctx, recentPatientLimit); err != nil {
		return nil, fmt.Errorf("list recent patients: %w", err)
	}
	return out, nil
}
