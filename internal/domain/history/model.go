package history

import (
	"encoding/json"
	"sort"
	"time"
)

// Known tooth state tags. The chart document is otherwise opaque:
// unrecognized teeth and tags pass through untouched, and a tooth
// absent from the document is implicitly healthy.
const (
	ToothHealthy   = "healthy"
	ToothCaries    = "caries"
	ToothTreated   = "treated"
	ToothExtracted = "extracted"
)

// VisitRecord maps to the visit_record table: one clinical encounter.
// PatientID is mandatory; Chart is populated when the record owns an
// odontogram. VisitNumber orders the patient's history and may be
// absent on records captured out of band.
type VisitRecord struct {
	ID          int64           `db:"id" json:"id"`
	PatientID   string          `db:"patient_id" json:"patient_id"`
	RecordDate  *time.Time      `db:"record_date" json:"record_date,omitempty"`
	Reason      string          `db:"reason" json:"reason"`
	Diagnosis   *string         `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment   *string         `db:"treatment" json:"treatment,omitempty"`
	Medications *string         `db:"medications" json:"medications,omitempty"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	Charged     *float64        `db:"charged" json:"charged,omitempty"`
	Paid        *float64        `db:"paid" json:"paid,omitempty"`
	Balance     *float64        `db:"balance" json:"balance,omitempty"`
	VisitNumber *int            `db:"visit_number" json:"visit_number,omitempty"`
	Chart       *Chart          `db:"-" json:"chart,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Chart maps to the chart table (odontogram). Exactly one visit record
// owns it; it never exists on its own. ToothStates is the per-tooth
// state document, stored opaquely.
type Chart struct {
	ID            int64           `db:"id" json:"id"`
	VisitRecordID int64           `db:"visit_record_id" json:"visit_record_id"`
	ToothStates   json.RawMessage `db:"tooth_states" json:"tooth_states"`
	Observations  *string         `db:"observations" json:"observations,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// SortByVisitNumber orders records by visit number ascending, records
// without one after all that have one. The sort is stable, so records
// lacking a number keep their original relative order. The input slice
// is sorted in place; record values are never mutated.
func SortByVisitNumber(records []*VisitRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].VisitNumber, records[j].VisitNumber
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// CurrentChart picks the chart representing the patient's present
// tooth state: among records owning a chart, the one with the latest
// record date wins, and the higher record id breaks ties (ids are
// assigned in insertion order, so they stand in for recency when
// dates tie or are missing). Returns nil when no record has a chart.
// A pure fold over the input; nothing is cached.
func CurrentChart(records []*VisitRecord) *Chart {
	var best *VisitRecord
	for _, r := range records {
		if r.Chart == nil {
			continue
		}
		if best == nil || newerThan(r, best) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	return best.Chart
}

// newerThan reports whether a is more recent than b: strictly later
// date wins when both dates are present; otherwise the higher id does.
func newerThan(a, b *VisitRecord) bool {
	if a.RecordDate != nil && b.RecordDate != nil && !a.RecordDate.Equal(*b.RecordDate) {
		return a.RecordDate.After(*b.RecordDate)
	}
	return a.ID > b.ID
}
