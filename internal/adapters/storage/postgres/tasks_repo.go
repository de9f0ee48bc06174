package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/tasks"
	"crm-backend/internal/domain/visibility"
)

type TasksRepo struct {
	db *sql.DB
}

func NewTasksRepo(db *sql.DB) *TasksRepo {
	return &TasksRepo{db: db}
}

func (r *TasksRepo) Create(ctx context.Context, t tasks.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, owner_id, title, description, status, priority, due_date,
			contact_id, deal_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		t.ID, t.OwnerID, t.Title, t.Description, t.Status, t.Priority, toNullTime(t.DueDate),
		t.ContactID, t.DealID, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (tasks.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, status, priority, due_date,
		       contact_id, deal_id, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return tasks.Task{}, audit.ErrNotFound
	}
	return t, err
}

func (r *TasksRepo) List(ctx context.Context, scope visibility.Scope, f tasks.ListFilter) ([]tasks.Task, error) {
	clause, args := scopeClause(scope, "owner_id", 1)

	query := `
		SELECT id, owner_id, title, description, status, priority, due_date,
		       contact_id, deal_id, created_at, updated_at
		FROM tasks
		WHERE ` + clause
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]tasks.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TasksRepo) Update(ctx context.Context, t tasks.Task, recs []audit.ChangeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5,
		    due_date = $6, contact_id = $7, deal_id = $8, updated_at = $9
		WHERE id = $1
	`, t.ID, t.Title, t.Description, t.Status, t.Priority, toNullTime(t.DueDate), t.ContactID, t.DealID, t.UpdatedAt)
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

func (r *TasksRepo) Delete(ctx context.Context, id string, terminal audit.ChangeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
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

func (r *TasksRepo) CountPending(ctx context.Context, scope visibility.Scope) (int, error) {
	clause, args := scopeClause(scope, "owner_id", 1)

	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE status <> 'completed' AND `+clause,
		args...).Scan(&n)
	return n, err
}

func (r *TasksRepo) ListDueBetween(ctx context.Context, from, to time.Time) ([]tasks.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, description, status, priority, due_date,
		       contact_id, deal_id, created_at, updated_at
		FROM tasks
		WHERE status <> 'completed'
		  AND due_date IS NOT NULL
		  AND due_date >= $1 AND due_date < $2
		ORDER BY due_date ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]tasks.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (tasks.Task, error) {
	var t tasks.Task
	var due sql.NullTime
	if err := row.Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.Priority, &due,
		&t.ContactID, &t.DealID, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return tasks.Task{}, err
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
