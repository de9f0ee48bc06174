package postgres

import (
	"context"
	"database/sql"

	"crm-backend/internal/domain/activities"
	"crm-backend/internal/domain/audit"
)

type ActivitiesRepo struct {
	db *sql.DB
}

func NewActivitiesRepo(db *sql.DB) *ActivitiesRepo {
	return &ActivitiesRepo{db: db}
}

func (r *ActivitiesRepo) Create(ctx context.Context, a activities.Activity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (id, entity_kind, entity_id, user_id, type, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		a.ID, string(a.EntityKind), a.EntityID, a.UserID, a.Type, a.Details, a.CreatedAt,
	)
	return err
}

func (r *ActivitiesRepo) ListByEntity(ctx context.Context, kind audit.EntityKind, entityID string, limit int) ([]activities.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entity_kind, entity_id, user_id, type, details, created_at
		FROM activities
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, string(kind), entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]activities.Activity, 0)
	for rows.Next() {
		var a activities.Activity
		var k string
		if err := rows.Scan(&a.ID, &k, &a.EntityID, &a.UserID, &a.Type, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.EntityKind = audit.EntityKind(k)
		out = append(out, a)
	}
	return out, rows.Err()
}
