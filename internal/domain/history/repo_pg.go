package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalcare/dentalcare/internal/platform/db"
	"github.com/dentalcare/dentalcare/pkg/clinerr"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, patient_id, record_date, reason, diagnosis, treatment,
	medications, notes, charged, paid, balance, visit_number, created_at, updated_at`

func scanRecord(row pgx.Row) (*VisitRecord, error) {
	var v VisitRecord
	err := row.Scan(&v.ID, &v.PatientID, &v.RecordDate, &v.Reason, &v.Diagnosis,
		&v.Treatment, &v.Medications, &v.Notes, &v.Charged, &v.Paid, &v.Balance,
		&v.VisitNumber, &v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *VisitRecord) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO visit_record (patient_id, record_date, reason, diagnosis,
			treatment, medications, notes, charged, paid, balance, visit_number)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`,
		v.PatientID, v.RecordDate, v.Reason, v.Diagnosis, v.Treatment,
		v.Medications, v.Notes, v.Charged, v.Paid, v.Balance, v.VisitNumber,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert visit record: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*VisitRecord, error) {
	v, err := scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM visit_record WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clinerr.NotFound("visit record", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get visit record %d: %w", id, err)
	}

	chart, err := r.GetChartByRecord(ctx, v.ID)
	if err != nil && !errors.Is(err, clinerr.ErrNotFound) {
		return nil, err
	}
	v.Chart = chart
	return v, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*VisitRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM visit_record`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count visit records: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recordCols+` FROM visit_record ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list visit records: %w", err)
	}
	defer rows.Close()

	items, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByPatient attaches charts with a LEFT JOIN so the caller sees
// each record's ownership in one read.
func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*VisitRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT v.id, v.patient_id, v.record_date, v.reason, v.diagnosis, v.treatment,
			v.medications, v.notes, v.charged, v.paid, v.balance, v.visit_number,
			v.created_at, v.updated_at,
			c.id, c.tooth_states, c.observations, c.created_at, c.updated_at
		FROM visit_record v
		LEFT JOIN chart c ON c.visit_record_id = v.id
		WHERE v.patient_id = $1
		ORDER BY v.id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list visit records for patient %s: %w", patientID, err)
	}
	defer rows.Close()

	var items []*VisitRecord
	for rows.Next() {
		var v VisitRecord
		var chartID *int64
		var toothStates []byte
		var observations *string
		var chartCreated, chartUpdated *time.Time
		err := rows.Scan(&v.ID, &v.PatientID, &v.RecordDate, &v.Reason, &v.Diagnosis,
			&v.Treatment, &v.Medications, &v.Notes, &v.Charged, &v.Paid, &v.Balance,
			&v.VisitNumber, &v.CreatedAt, &v.UpdatedAt,
			&chartID, &toothStates, &observations, &chartCreated, &chartUpdated)
		if err != nil {
			return nil, fmt.Errorf("scan visit record with chart: %w", err)
		}
		if chartID != nil {
			c := &Chart{
				ID:            *chartID,
				VisitRecordID: v.ID,
				ToothStates:   toothStates,
				Observations:  observations,
			}
			if chartCreated != nil {
				c.CreatedAt = *chartCreated
			}
			if chartUpdated != nil {
				c.UpdatedAt = *chartUpdated
			}
			v.Chart = c
		}
		items = append(items, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visit records: %w", err)
	}
	return items, nil
}

func (r *repoPG) Update(ctx context.Context, v *VisitRecord) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit_record
		SET record_date=$2, reason=$3, diagnosis=$4, treatment=$5, medications=$6,
			notes=$7, charged=$8, paid=$9, balance=$10, visit_number=$11, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.RecordDate, v.Reason, v.Diagnosis, v.Treatment, v.Medications,
		v.Notes, v.Charged, v.Paid, v.Balance, v.VisitNumber)
	if err != nil {
		return fmt.Errorf("update visit record %d: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return clinerr.NotFound("visit record", v.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM chart WHERE visit_record_id = $1`, id); err != nil {
		return fmt.Errorf("delete chart of visit record %d: %w", id, err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM visit_record WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visit record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return clinerr.NotFound("visit record", id)
	}
	return nil
}

func (r *repoPG) DeleteByPatient(ctx context.Context, patientID string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM chart
		WHERE visit_record_id IN (SELECT id FROM visit_record WHERE patient_id = $1)`, patientID)
	if err != nil {
		return fmt.Errorf("delete charts for patient %s: %w", patientID, err)
	}
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM visit_record WHERE patient_id = $1`, patientID); err != nil {
		return fmt.Errorf("delete visit records for patient %s: %w", patientID, err)
	}
	return nil
}

func (r *repoPG) CreateChart(ctx context.Context, c *Chart) error {
	if len(c.ToothStates) == 0 {
		c.ToothStates = []byte("{}")
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO chart (visit_record_id, tooth_states, observations)
		VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at`,
		c.VisitRecordID, c.ToothStates, c.Observations,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert chart: %w", err)
	}
	return nil
}

func (r *repoPG) GetChartByRecord(ctx context.Context, visitRecordID int64) (*Chart, error) {
	var c Chart
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_record_id, tooth_states, observations, created_at, updated_at
		FROM chart WHERE visit_record_id = $1`, visitRecordID,
	).Scan(&c.ID, &c.VisitRecordID, &c.ToothStates, &c.Observations, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clinerr.NotFound("chart for visit record", visitRecordID)
	}
	if err != nil {
		return nil, fmt.Errorf("get chart for visit record %d: %w", visitRecordID, err)
	}
	return &c, nil
}

func (r *repoPG) CountInMonth(ctx context.Context, year, month int) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM visit_record
		WHERE EXTRACT(YEAR FROM record_date) = $1 AND EXTRACT(MONTH FROM record_date) = $2`,
		year, month).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count visit records in month: %w", err)
	}
	return n, nil
}

func collectRecords(rows pgx.Rows) ([]*VisitRecord, error) {
	var items []*VisitRecord
	for rows.Next() {
		v, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit record: %w", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visit records: %w", err)
	}
	return items, nil
}
