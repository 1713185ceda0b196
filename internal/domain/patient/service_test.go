package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/dentalcare/dentalcare/internal/domain/appointment"
	"github.com/dentalcare/dentalcare/pkg/clinerr"
)

type mockRepo struct {
	patients map[string]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[string]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.DocumentID]; ok {
		return clinerr.AlreadyExists("patient", p.DocumentID)
	}
	cp := *p
	m.patients[p.DocumentID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, documentID string) (*Patient, error) {
	p, ok := m.patients[documentID]
	if !ok {
		return nil, clinerr.NotFound("patient", documentID)
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Exists(_ context.Context, documentID string) (bool, error) {
	_, ok := m.patients[documentID]
	return ok, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) Search(_ context.Context, term string) ([]*Patient, error) {
	return nil, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.DocumentID]; !ok {
		return clinerr.NotFound("patient", p.DocumentID)
	}
	cp := *p
	m.patients[p.DocumentID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, documentID string) error {
	if _, ok := m.patients[documentID]; !ok {
		return clinerr.NotFound("patient", documentID)
	}
	delete(m.patients, documentID)
	return nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) { return len(m.patients), nil }

func (m *mockRepo) ListRecent(_ context.Context, limit int) ([]*Patient, error) {
	return nil, nil
}

// mockLinker stores appointments keyed by id, with patient_id as the
// only record of the association, like the real table.
type mockLinker struct {
	appointments map[int64]*appointment.Appointment
}

func newMockLinker(ids ...int64) *mockLinker {
	m := &mockLinker{appointments: make(map[int64]*appointment.Appointment)}
	for _, id := range ids {
		m.appointments[id] = &appointment.Appointment{ID: id, Status: appointment.StatusPending}
	}
	return m
}

func (m *mockLinker) GetByID(_ context.Context, id int64) (*appointment.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, clinerr.NotFound("appointment", id)
	}
	cp := *a
	return &cp, nil
}

func (m *mockLinker) ListByPatient(_ context.Context, patientID string) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for id := int64(0); id < 100; id++ {
		a, ok := m.appointments[id]
		if !ok || a.PatientID == nil || *a.PatientID != patientID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockLinker) ClaimForPatient(_ context.Context, id int64, patientID string) error {
	a, ok := m.appointments[id]
	if !ok {
		return clinerr.NotFound("appointment", id)
	}
	a.PatientID = &patientID
	return nil
}

func (m *mockLinker) Detach(_ context.Context, id int64) error {
	a, ok := m.appointments[id]
	if !ok {
		return clinerr.NotFound("appointment", id)
	}
	a.PatientID = nil
	return nil
}

func (m *mockLinker) DetachAllForPatient(_ context.Context, patientID string) error {
	for _, a := range m.appointments {
		if a.PatientID != nil && *a.PatientID == patientID {
			a.PatientID = nil
		}
	}
	return nil
}

func (m *mockLinker) owner(id int64) string {
	a := m.appointments[id]
	if a == nil || a.PatientID == nil {
		return ""
	}
	return *a.PatientID
}

type mockPurger struct {
	purged []string
}

func (m *mockPurger) DeleteByPatient(_ context.Context, patientID string) error {
	m.purged = append(m.purged, patientID)
	return nil
}

func newTestService(repo *mockRepo, linker *mockLinker, purger *mockPurger) *Service {
	return NewService(repo, NewSynchronizer(linker), purger, PassthroughTx)
}

func TestCreatePatientClaimsAppointments(t *testing.T) {
	repo := newMockRepo()
	linker := newMockLinker(1, 2, 3)
	svc := newTestService(repo, linker, &mockPurger{})

	p := &Patient{DocumentID: "12345678", FirstName: "Ana", LastName: "Gomez"}
	if err := svc.CreatePatient(context.Background(), p, []int64{1, 3}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := linker.owner(1); got != "12345678" {
		t.Errorf("appointment 1 owner: got %q, want 12345678", got)
	}
	if got := linker.owner(3); got != "12345678" {
		t.Errorf("appointment 3 owner: got %q, want 12345678", got)
	}
	if got := linker.owner(2); got != "" {
		t.Errorf("appointment 2 should stay unassigned, got %q", got)
	}
}

func TestCreatePatientUnresolvableAppointment(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, newMockLinker(1), &mockPurger{})

	p := &Patient{DocumentID: "12345678", FirstName: "Ana", LastName: "Gomez"}
	err := svc.CreatePatient(context.Background(), p, []int64{1, 99})
	if !errors.Is(err, clinerr.ErrConsistencyViolation) {
		t.Fatalf("got %v, want consistency violation", err)
	}
}

func TestCreatePatientDuplicateDocument(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, newMockLinker(), &mockPurger{})
	ctx := context.Background()

	p := &Patient{DocumentID: "12345678", FirstName: "Ana", LastName: "Gomez"}
	if err := svc.CreatePatient(ctx, p, nil); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := svc.CreatePatient(ctx, &Patient{DocumentID: "12345678", FirstName: "Eva", LastName: "Diaz"}, nil)
	if !errors.Is(err, clinerr.ErrAlreadyExists) {
		t.Fatalf("got %v, want already exists", err)
	}
}

func TestEditPatientReconcilesAppointments(t *testing.T) {
	repo := newMockRepo()
	linker := newMockLinker(1, 2, 3)
	svc := newTestService(repo, linker, &mockPurger{})
	ctx := context.Background()

	p := &Patient{DocumentID: "12345678", FirstName: "Ana", LastName: "Gomez"}
	if err := svc.CreatePatient(ctx, p, []int64{1, 2}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Drop 1, keep 2, add 3.
	if err := svc.EditPatient(ctx, p, []int64{2, 3}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if got := linker.owner(1); got != "" {
		t.Errorf("appointment 1 should be detached, got %q", got)
	}
	if got := linker.owner(2); got != "12345678" {
		t.Errorf("appointment 2 owner: got %q, want 12345678", got)
	}
	if got := linker.owner(3); got != "12345678" {
		t.Errorf("appointment 3 owner: got %q, want 12345678", got)
	}
	// Dropped appointments survive as unassigned, never deleted.
	if _, err := linker.GetByID(ctx, 1); err != nil {
		t.Errorf("appointment 1 should still exist: %v", err)
	}
}

func TestEditPatientReassignsFromPriorOwner(t *testing.T) {
	repo := newMockRepo()
	linker := newMockLinker(1)
	svc := newTestService(repo, linker, &mockPurger{})
	ctx := context.Background()

	first := &Patient{DocumentID: "11111111", FirstName: "Ana", LastName: "Gomez"}
	if err := svc.CreatePatient(ctx, first, []int64{1}); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := &Patient{DocumentID: "22222222", FirstName: "Eva", LastName: "Diaz"}
	if err := svc.CreatePatient(ctx, second, []int64{1}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	if got := linker.owner(1); got != "22222222" {
		t.Errorf("appointment 1 owner: got %q, want the later claimant", got)
	}
	got, err := svc.sync.appointments.ListByPatient(ctx, "11111111")
	if err != nil {
		t.Fatalf("list for first patient: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("first patient should have lost the appointment, still has %d", len(got))
	}
}

func TestEditPatientNotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockLinker(), &mockPurger{})

	p := &Patient{DocumentID: "12345678", FirstName: "Ana", LastName: "Gomez"}
	err := svc.EditPatient(context.Background(), p, nil)
	if !errors.Is(err, clinerr.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestDeletePatientDetachesAndPurges(t *testing.T) {
	repo := newMockRepo()
	linker := newMockLinker(1, 2)
	purger := &mockPurger{}
	svc := newTestService(repo, linker, purger)
	ctx := context.Background()

	p := &Patient{DocumentID: "12345678", FirstName: "Ana", LastName: "Gomez"}
	if err := svc.CreatePatient(ctx, p, []int64{1, 2}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeletePatient(ctx, "12345678"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.GetPatient(ctx, "12345678"); !errors.Is(err, clinerr.ErrNotFound) {
		t.Fatalf("patient should be gone, got %v", err)
	}
	for _, id := range []int64{1, 2} {
		if _, err := linker.GetByID(ctx, id); err != nil {
			t.Errorf("appointment %d should survive patient deletion: %v", id, err)
		}
		if got := linker.owner(id); got != "" {
			t.Errorf("appointment %d should be detached, got owner %q", id, got)
		}
	}
	if len(purger.purged) != 1 || purger.purged[0] != "12345678" {
		t.Errorf("history purge: got %v, want [12345678]", purger.purged)
	}
}

func TestDeletePatientNotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockLinker(), &mockPurger{})
	err := svc.DeletePatient(context.Background(), "nope")
	if !errors.Is(err, clinerr.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}
