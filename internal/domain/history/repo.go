package history

import "context"

type Repository interface {
	Create(ctx context.Context, r *VisitRecord) error
	GetByID(ctx context.Context, id int64) (*VisitRecord, error)
	List(ctx context.Context, limit, offset int) ([]*VisitRecord, int, error)
	// ListByPatient returns the patient's records with owned charts
	// attached, in store iteration order (insertion order).
	ListByPatient(ctx context.Context, patientID string) ([]*VisitRecord, error)
	Update(ctx context.Context, r *VisitRecord) error
	// Delete removes the record and the chart it owns.
	Delete(ctx context.Context, id int64) error
	// DeleteByPatient removes all of a patient's records and their charts.
	DeleteByPatient(ctx context.Context, patientID string) error

	CreateChart(ctx context.Context, c *Chart) error
	GetChartByRecord(ctx context.Context, visitRecordID int64) (*Chart, error)

	CountInMonth(ctx context.Context, year int, month int) (int, error)
}
