package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/deals"
	"crm-backend/internal/domain/visibility"
)

type DealsRepo struct {
	db *sql.DB
}

func NewDealsRepo(db *sql.DB) *DealsRepo {
	return &DealsRepo{db: db}
}

func (r *DealsRepo) Create(ctx context.Context, d deals.Deal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deals (
			id, owner_id, title, value, stage, description, contact_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		d.ID, d.OwnerID, d.Title, d.Value, d.Stage, d.Description, d.ContactID,
		d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *DealsRepo) GetByID(ctx context.Context, id string) (deals.Deal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, value, stage, description, contact_id, created_at, updated_at
		FROM deals
		WHERE id = $1
	`, id)

	var d deals.Deal
	if err := row.Scan(
		&d.ID, &d.OwnerID, &d.Title, &d.Value, &d.Stage, &d.Description, &d.ContactID,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return deals.Deal{}, audit.ErrNotFound
		}
		return deals.Deal{}, err
	}
	return d, nil
}

func (r *DealsRepo) List(ctx context.Context, scope visibility.Scope, f deals.ListFilter) ([]deals.Deal, error) {
	clause, args := scopeClause(scope, "owner_id", 1)

	query := `
		SELECT id, owner_id, title, value, stage, description, contact_id, created_at, updated_at
		FROM deals
		WHERE ` + clause
	if f.Stage != "" {
		args = append(args, f.Stage)
		query += fmt.Sprintf(" AND stage = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]deals.Deal, 0)
	for rows.Next() {
		var d deals.Deal
		if err := rows.Scan(
			&d.ID, &d.OwnerID, &d.Title, &d.Value, &d.Stage, &d.Description, &d.ContactID,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DealsRepo) Update(ctx context.Context, d deals.Deal, recs []audit.ChangeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE deals
		SET title = $2, value = $3, stage = $4, description = $5, contact_id = $6, updated_at = $7
		WHERE id = $1
	`, d.ID, d.Title, d.Value, d.Stage, d.Description, d.ContactID, d.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return audit.ErrNotFound
	}

	if err := insertChangeRecords(ctx, tx, recs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *DealsRepo) Delete(ctx context.Context, id string, terminal audit.ChangeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return audit.ErrNotFound
	}

	if err := insertChangeRecords(ctx, tx, []audit.ChangeRecord{terminal}); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *DealsRepo) StatsFor(ctx context.Context, scope visibility.Scope) (deals.Stats, error) {
	clause, args := scopeClause(scope, "owner_id", 1)

	row := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE stage NOT IN ('closed_won','closed_lost')),
			COALESCE(SUM(value) FILTER (WHERE stage = 'closed_won'), 0),
			COALESCE(SUM(value) FILTER (WHERE stage NOT IN ('closed_won','closed_lost')), 0),
			COUNT(*) FILTER (WHERE stage = 'closed_won'),
			COUNT(*) FILTER (WHERE stage IN ('closed_won','closed_lost'))
		FROM deals
		WHERE `+clause, args...)

	var st deals.Stats
	if err := row.Scan(&st.Total, &st.Active, &st.WonRevenue, &st.Pipeline, &st.WonCount, &st.ClosedCount); err != nil {
		return deals.Stats{}, err
	}
	return st, nil
}
