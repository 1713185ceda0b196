package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dentalcare/dentalcare/pkg/clinerr"
)

type mockRepo struct {
	records map[int64]*VisitRecord
	charts  map[int64]*Chart
	nextID  int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		records: make(map[int64]*VisitRecord),
		charts:  make(map[int64]*Chart),
		nextID:  1,
	}
}

func (m *mockRepo) Create(_ context.Context, r *VisitRecord) error {
	r.ID = m.nextID
	m.nextID++
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*VisitRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, clinerr.NotFound("visit record", id)
	}
	cp := *r
	if c, ok := m.charts[id]; ok {
		cc := *c
		cp.Chart = &cc
	}
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*VisitRecord, int, error) {
	var out []*VisitRecord
	for _, r := range m.records {
		cp := *r
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string) ([]*VisitRecord, error) {
	var out []*VisitRecord
	for id := int64(1); id < m.nextID; id++ {
		r, ok := m.records[id]
		if !ok || r.PatientID != patientID {
			continue
		}
		cp := *r
		if c, ok := m.charts[id]; ok {
			cc := *c
			cp.Chart = &cc
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, r *VisitRecord) error {
	if _, ok := m.records[r.ID]; !ok {
		return clinerr.NotFound("visit record", r.ID)
	}
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return clinerr.NotFound("visit record", id)
	}
	delete(m.records, id)
	delete(m.charts, id)
	return nil
}

func (m *mockRepo) DeleteByPatient(_ context.Context, patientID string) error {
	for id, r := range m.records {
		if r.PatientID == patientID {
			delete(m.records, id)
			delete(m.charts, id)
		}
	}
	return nil
}

func (m *mockRepo) CreateChart(_ context.Context, c *Chart) error {
	c.ID = m.nextID
	m.nextID++
	cp := *c
	m.charts[c.VisitRecordID] = &cp
	return nil
}

func (m *mockRepo) GetChartByRecord(_ context.Context, visitRecordID int64) (*Chart, error) {
	c, ok := m.charts[visitRecordID]
	if !ok {
		return nil, clinerr.NotFound("chart for visit record", visitRecordID)
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) CountInMonth(_ context.Context, year, month int) (int, error) {
	return 0, nil
}

type mockPatients map[string]bool

func (m mockPatients) Exists(_ context.Context, documentID string) (bool, error) {
	return m[documentID], nil
}

func newTestService(repo *mockRepo, patients mockPatients) *Service {
	return NewService(repo, patients, PassthroughTx)
}

func TestCreateVisitRecordUnknownPatient(t *testing.T) {
	svc := newTestService(newMockRepo(), mockPatients{})

	err := svc.CreateVisitRecord(context.Background(), &VisitRecord{PatientID: "12345678", Reason: "checkup"})
	if !errors.Is(err, clinerr.ErrConsistencyViolation) {
		t.Fatalf("got %v, want consistency violation", err)
	}
}

func TestCreateVisitRecordWithChart(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, mockPatients{"12345678": true})

	v := &VisitRecord{PatientID: "12345678", Reason: "extraction"}
	states := json.RawMessage(`{"18":"extracted"}`)
	if err := svc.CreateVisitRecordWithChart(context.Background(), v, states, nil); err != nil {
		t.Fatalf("create with chart: %v", err)
	}
	if v.Chart == nil || v.Chart.VisitRecordID != v.ID {
		t.Fatalf("chart not attached to record: %+v", v.Chart)
	}
	got, err := repo.GetChartByRecord(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("chart not stored: %v", err)
	}
	if string(got.ToothStates) != string(states) {
		t.Fatalf("got tooth states %s, want %s", got.ToothStates, states)
	}
}

func TestDeleteVisitRecordRemovesChart(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, mockPatients{"12345678": true})

	v := &VisitRecord{PatientID: "12345678", Reason: "filling"}
	if err := svc.CreateVisitRecordWithChart(context.Background(), v, json.RawMessage(`{}`), nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteVisitRecord(context.Background(), v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetChartByRecord(context.Background(), v.ID); !errors.Is(err, clinerr.ErrNotFound) {
		t.Fatalf("chart survived record deletion: %v", err)
	}
}

func TestListVisitRecordsForPatientOrdering(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, mockPatients{"12345678": true})
	ctx := context.Background()

	for _, n := range []*int{intp(3), nil, intp(1)} {
		v := &VisitRecord{PatientID: "12345678", Reason: "visit", VisitNumber: n}
		if err := svc.CreateVisitRecord(ctx, v); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := svc.ListVisitRecordsForPatient(ctx, "12345678")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	if got[0].VisitNumber == nil || *got[0].VisitNumber != 1 {
		t.Fatalf("first record should be visit 1, got %+v", got[0])
	}
	if got[2].VisitNumber != nil {
		t.Fatalf("unnumbered record should sort last, got %+v", got[2])
	}
}

func TestGetCurrentChart(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, mockPatients{"12345678": true})
	ctx := context.Background()

	if chart, err := svc.GetCurrentChart(ctx, "12345678"); err != nil || chart != nil {
		t.Fatalf("empty history: got (%+v, %v), want (nil, nil)", chart, err)
	}

	first := &VisitRecord{PatientID: "12345678", Reason: "visit"}
	if err := svc.CreateVisitRecordWithChart(ctx, first, json.RawMessage(`{"11":"caries"}`), nil); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := &VisitRecord{PatientID: "12345678", Reason: "visit"}
	if err := svc.CreateVisitRecordWithChart(ctx, second, json.RawMessage(`{"11":"treated"}`), nil); err != nil {
		t.Fatalf("create second: %v", err)
	}

	chart, err := svc.GetCurrentChart(ctx, "12345678")
	if err != nil {
		t.Fatalf("get current chart: %v", err)
	}
	if chart == nil || string(chart.ToothStates) != `{"11":"treated"}` {
		t.Fatalf("got %+v, want the later chart", chart)
	}
}

func TestUpdateChartAppendsRecord(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, mockPatients{"12345678": true})
	ctx := context.Background()

	v1, err := svc.UpdateChart(ctx, "12345678", json.RawMessage(`{"11":"caries"}`), nil)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	v2, err := svc.UpdateChart(ctx, "12345678", json.RawMessage(`{"11":"treated"}`), nil)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if v1.ID == v2.ID {
		t.Fatal("chart update should append a new record, not reuse one")
	}

	records, err := svc.ListVisitRecordsForPatient(ctx, "12345678")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	chart, err := svc.GetCurrentChart(ctx, "12345678")
	if err != nil {
		t.Fatalf("get current chart: %v", err)
	}
	if chart == nil || string(chart.ToothStates) != `{"11":"treated"}` {
		t.Fatalf("got %+v, want the second snapshot", chart)
	}
}

func TestUpdateChartUnknownPatient(t *testing.T) {
	svc := newTestService(newMockRepo(), mockPatients{})
	if _, err := svc.UpdateChart(context.Background(), "nope", json.RawMessage(`{}`), nil); !errors.Is(err, clinerr.ErrConsistencyViolation) {
		t.Fatalf("got %v, want consistency violation", err)
	}
}
