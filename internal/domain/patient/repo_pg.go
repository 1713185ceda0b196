package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const cols = `document_id, first_name, last_name, phone, address, birth_date,
	email, insurance, antecedents, guardian_id, created_at, updated_at`

func scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.DocumentID, &p.FirstName, &p.LastName, &p.Phone, &p.Address,
		&p.BirthDate, &p.Email, &p.Insurance, &p.Antecedents, &p.GuardianID,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if len(p.Antecedents) == 0 {
		p.Antecedents = []byte("{}")
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (document_id, first_name, last_name, phone, address,
			birth_date, email, insurance, antecedents, guardian_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		p.DocumentID, p.FirstName, p.LastName, p.Phone, p.Address,
		p.BirthDate, p.Email, p.Insurance, p.Antecedents, p.GuardianID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return clinerr.AlreadyExists("patient", p.DocumentID)
	}
	if err != nil {
		return fmt.Errorf("insert patient %s: %w", p.DocumentID, err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, documentID string) (*Patient, error) {
	p, err := scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM patient WHERE document_id = $1`, documentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clinerr.NotFound("patient", documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %s: %w", documentID, err)
	}
	return p, nil
}

func (r *repoPG) Exists(ctx context.Context, documentID string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE document_id = $1)`, documentID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check patient %s: %w", documentID, err)
	}
	return ok, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM patient
		ORDER BY last_name, first_name, document_id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	items, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) Search(ctx context.Context, term string) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM patient
		WHERE first_name ILIKE '%' || $1 || '%'
		   OR last_name ILIKE '%' || $1 || '%'
		   OR document_id LIKE '%' || $1 || '%'
		ORDER BY last_name, first_name, document_id`, term)
	if err != nil {
		return nil, fmt.Errorf("search patients %q: %w", term, err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient
		SET first_name=$2, last_name=$3, phone=$4, address=$5, birth_date=$6,
			email=$7, insurance=$8, antecedents=$9, guardian_id=$10, updated_at=NOW()
		WHERE document_id = $1`,
		p.DocumentID, p.FirstName, p.LastName, p.Phone, p.Address, p.BirthDate,
		p.Email, p.Insurance, p.Antecedents, p.GuardianID)
	if err != nil {
		return fmt.Errorf("update patient %s: %w", p.DocumentID, err)
	}
	if tag.RowsAffected() == 0 {
		return clinerr.NotFound("patient", p.DocumentID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, documentID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("delete patient %s: %w", documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return clinerr.NotFound("patient", documentID)
	}
	return nil
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

func (r *repoPG) ListRecent(ctx context.Context, limit int) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM patient
		ORDER BY created_at DESC, document_id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent patients: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]*Patient, error) {
	var items []*Patient
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return items, nil
}
