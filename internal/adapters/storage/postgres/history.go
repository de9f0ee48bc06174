package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/visibility"
)

// insertChangeRecords escribe las filas del historial dentro de la
// transacción de la mutación. Si falla, el caller hace rollback de todo.
func insertChangeRecords(ctx context.Context, tx *sql.Tx, recs []audit.ChangeRecord) error {
	for _, rec := range recs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO change_records (
				id, entity_kind, entity_id, changed_by,
				field, old_value, new_value, ts
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			rec.ID,
			string(rec.EntityKind),
			rec.EntityID,
			rec.ChangedBy,
			rec.Field,
			rec.OldValue,
			rec.NewValue,
			rec.Timestamp,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// ListByEntity devuelve la mutación más reciente primero; dentro de una
// mutación (mismo ts) los registros conservan el orden del patch.
func (r *HistoryRepo) ListByEntity(ctx context.Context, kind audit.EntityKind, entityID string) ([]audit.ChangeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entity_kind, entity_id, changed_by, field, old_value, new_value, ts
		FROM change_records
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY ts DESC, seq ASC
	`, string(kind), entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChangeRecords(rows)
}

func (r *HistoryRepo) ListRecent(ctx context.Context, scope visibility.Scope, limit int) ([]audit.ChangeRecord, error) {
	clause, args := scopeClause(scope, "changed_by", 1)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, entity_kind, entity_id, changed_by, field, old_value, new_value, ts
		FROM change_records
		WHERE %s
		ORDER BY ts DESC, seq DESC
		LIMIT $%d
	`, clause, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChangeRecords(rows)
}

func (r *HistoryRepo) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM change_records WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanChangeRecords(rows *sql.Rows) ([]audit.ChangeRecord, error) {
	out := make([]audit.ChangeRecord, 0)
	for rows.Next() {
		var rec audit.ChangeRecord
		var kind string
		if err := rows.Scan(
			&rec.ID,
			&kind,
			&rec.EntityID,
			&rec.ChangedBy,
			&rec.Field,
			&rec.OldValue,
			&rec.NewValue,
			&rec.Timestamp,
		); err != nil {
			return nil, err
		}
		rec.EntityKind = audit.EntityKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}
