package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/leads"
	"crm-backend/internal/domain/visibility"
)

type LeadsRepo struct {
	db *sql.DB
}

func NewLeadsRepo(db *sql.DB) *LeadsRepo {
	return &LeadsRepo{db: db}
}

func (r *LeadsRepo) Create(ctx context.Context, l leads.Lead) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (id, owner_id, name, email, phone, stage, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		l.ID, l.OwnerID, l.Name, l.Email, l.Phone, l.Stage, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (r *LeadsRepo) GetByID(ctx context.Context, id string) (leads.Lead, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, email, phone, stage, created_at, updated_at
		FROM leads
		WHERE id = $1
	`, id)

	var l leads.Lead
	if err := row.Scan(&l.ID, &l.OwnerID, &l.Name, &l.Email, &l.Phone, &l.Stage, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return leads.Lead{}, audit.ErrNotFound
		}
		return leads.Lead{}, err
	}
	return l, nil
}

func (r *LeadsRepo) List(ctx context.Context, scope visibility.Scope, f leads.ListFilter) ([]leads.Lead, error) {
	clause, args := scopeClause(scope, "owner_id", 1)

	query := `
		SELECT id, owner_id, name, email, phone, stage, created_at, updated_at
		FROM leads
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

	out := make([]leads.Lead, 0)
	for rows.Next() {
		var l leads.Lead
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Name, &l.Email, &l.Phone, &l.Stage, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update escribe el lead y su historial en una transacción: o queda todo
// o no queda nada.
func (r *LeadsRepo) Update(ctx context.Context, l leads.Lead, recs []audit.ChangeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE leads
		SET name = $2, email = $3, phone = $4, stage = $5, updated_at = $6
		WHERE id = $1
	`, l.ID, l.Name, l.Email, l.Phone, l.Stage, l.UpdatedAt)
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

// Delete borra el lead y deja el registro terminal. Los registros previos
// no se tocan: el historial sobrevive a la entidad.
func (r *LeadsRepo) Delete(ctx context.Context, id string, terminal audit.ChangeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
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

func (r *LeadsRepo) CountByStage(ctx context.Context, scope visibility.Scope) (map[string]int, error) {
	clause, args := scopeClause(scope, "owner_id", 1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT stage, COUNT(*)
		FROM leads
		WHERE `+clause+`
		GROUP BY stage
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCounts(rows)
}

func (r *LeadsRepo) CountByOwner(ctx context.Context, scope visibility.Scope) (map[string]int, error) {
	clause, args := scopeClause(scope, "owner_id", 1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_id, COUNT(*)
		FROM leads
		WHERE `+clause+`
		GROUP BY owner_id
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCounts(rows)
}

func scanCounts(rows *sql.Rows) (map[string]int, error) {
	out := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
