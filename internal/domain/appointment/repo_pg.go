package appointment

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

const cols = `id, scheduled_date, scheduled_time, reason, status, notes, patient_id, created_at, updated_at`

func scan(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.Date, &a.Time, &a.Reason, &a.Status, &a.Notes,
		&a.PatientID, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (scheduled_date, scheduled_time, reason, status, notes, patient_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`,
		a.Date, a.Time, a.Reason, a.Status, a.Notes, a.PatientID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM appointment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clinerr.NotFound("appointment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return a, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM appointment
		ORDER BY scheduled_date, scheduled_time, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	items, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment
		SET scheduled_date=$2, scheduled_time=$3, reason=$4, status=$5, notes=$6, patient_id=$7, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Date, a.Time, a.Reason, a.Status, a.Notes, a.PatientID)
	if err != nil {
		return fmt.Errorf("update appointment %d: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return clinerr.NotFound("appointment", a.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return clinerr.NotFound("appointment", id)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM appointment
		WHERE patient_id = $1
		ORDER BY scheduled_date, scheduled_time, id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments for patient %s: %w", patientID, err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListOnDate(ctx context.Context, date time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM appointment
		WHERE scheduled_date = $1::date
		ORDER BY scheduled_time, id`, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments on %s: %w", date.Format("2006-01-02"), err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ClaimForPatient(ctx context.Context, id int64, patientID string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET patient_id = $2, updated_at = NOW() WHERE id = $1`, id, patientID)
	if err != nil {
		return fmt.Errorf("claim appointment %d for %s: %w", id, patientID, err)
	}
	if tag.RowsAffected() == 0 {
		return clinerr.NotFound("appointment", id)
	}
	return nil
}

func (r *repoPG) Detach(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET patient_id = NULL, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("detach appointment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return clinerr.NotFound("appointment", id)
	}
	return nil
}

func (r *repoPG) DetachAllForPatient(ctx context.Context, patientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET patient_id = NULL, updated_at = NOW() WHERE patient_id = $1`, patientID)
	if err != nil {
		return fmt.Errorf("detach appointments for patient %s: %w", patientID, err)
	}
	return nil
}

func (r *repoPG) CountOnDate(ctx context.Context, date time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE scheduled_date = $1::date`, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count appointments on date: %w", err)
	}
	return n, nil
}

func (r *repoPG) CountByStatus(ctx context.Context, s Status) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE status = $1`, s).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count appointments by status: %w", err)
	}
	return n, nil
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return items, nil
}
