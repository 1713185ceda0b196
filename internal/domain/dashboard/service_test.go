package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/dentalcare/dentalcare/internal/domain/appointment"
	"github.com/dentalcare/dentalcare/internal/domain/patient"
)

type stubPatients struct {
	count  int
	recent []*patient.Patient
}

func (s stubPatients) Count(context.Context) (int, error) { return s.count, nil }
func (s stubPatients) ListRecent(_ context.Context, limit int) ([]*patient.Patient, error) {
	if len(s.recent) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

type stubAppointments struct {
	onDate   map[string]int
	byStatus map[appointment.Status]int
}

func (s stubAppointments) CountOnDate(_ context.Context, date time.Time) (int, error) {
	return s.onDate[date.Format("2006-01-02")], nil
}

func (s stubAppointments) CountByStatus(_ context.Context, st appointment.Status) (int, error) {
	return s.byStatus[st], nil
}

type stubHistory struct {
	month map[[2]int]int
}

func (s stubHistory) CountInMonth(_ context.Context, year, month int) (int, error) {
	return s.month[[2]int{year, month}], nil
}

func TestStats(t *testing.T) {
	today := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

	svc := NewService(
		stubPatients{
			count: 42,
			recent: []*patient.Patient{
				{DocumentID: "11111111"},
				{DocumentID: "22222222"},
			},
		},
		stubAppointments{
			onDate:   map[string]int{"2025-07-15": 3},
			byStatus: map[appointment.Status]int{appointment.StatusPending: 7},
		},
		stubHistory{
			month: map[[2]int]int{{2025, 7}: 12},
		},
	)
	svc.now = func() time.Time { return today }

	got, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got.TotalPatients != 42 {
		t.Errorf("total patients: got %d, want 42", got.TotalPatients)
	}
	if got.AppointmentsToday != 3 {
		t.Errorf("appointments today: got %d, want 3", got.AppointmentsToday)
	}
	if got.ConsultationsThisMonth != 12 {
		t.Errorf("consultations this month: got %d, want 12", got.ConsultationsThisMonth)
	}
	if got.PendingAppointments != 7 {
		t.Errorf("pending appointments: got %d, want 7", got.PendingAppointments)
	}
	if len(got.RecentPatients) != 2 {
		t.Errorf("recent patients: got %d, want 2", len(got.RecentPatients))
	}
}
