package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"crm-backend/internal/domain/systemlog"
)

type SystemLogRepo struct {
	db *sql.DB
}

func NewSystemLogRepo(db *sql.DB) *SystemLogRepo {
	return &SystemLogRepo{db: db}
}

func (r *SystemLogRepo) Append(ctx context.Context, e systemlog.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_events (
			id, actor_id, action, entity_type, entity_id,
			description, ip_address, user_agent, ts
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID,
		e.Description, e.IPAddress, e.UserAgent, e.Timestamp,
	)
	return err
}

func (r *SystemLogRepo) List(ctx context.Context, f systemlog.ListFilter) (systemlog.Page, error) {
	where, args := buildEventFilter(f)

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM system_events WHERE "+where, args...,
	).Scan(&total); err != nil {
		return systemlog.Page{}, err
	}

	order := "DESC"
	if f.SortAsc {
		order = "ASC"
	}
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	query := fmt.Sprintf(`
		SELECT id, actor_id, action, entity_type, entity_id, description, ip_address, user_agent, ts
		FROM system_events
		WHERE %s
		ORDER BY ts %s
		LIMIT $%d OFFSET $%d
	`, where, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return systemlog.Page{}, err
	}
	defer rows.Close()

	records := make([]systemlog.Event, 0)
	for rows.Next() {
		var e systemlog.Event
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&e.Description, &e.IPAddress, &e.UserAgent, &e.Timestamp,
		); err != nil {
			return systemlog.Page{}, err
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return systemlog.Page{}, err
	}

	totalPages := (total + f.PageSize - 1) / f.PageSize
	if totalPages == 0 {
		totalPages = 1
	}

	return systemlog.Page{
		Records:    records,
		Total:      total,
		Page:       f.Page,
		TotalPages: totalPages,
	}, nil
}

func buildEventFilter(f systemlog.ListFilter) (string, []any) {
	conds := []string{"TRUE"}
	args := make([]any, 0, 4)

	if f.ActorID != "" {
		args = append(args, f.ActorID)
		conds = append(conds, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		conds = append(conds, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(description ILIKE $%d OR action ILIKE $%d OR entity_type ILIKE $%d)", n, n, n))
	}
	return strings.Join(conds, " AND "), args
}

func (r *SystemLogRepo) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM system_events WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *SystemLogRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM system_events`)
	return err
}

func (r *SystemLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM system_events WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
