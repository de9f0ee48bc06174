package postgres

import (
	"context"
	"database/sql"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/contacts"
	"crm-backend/internal/domain/visibility"
)

type ContactsRepo struct {
	db *sql.DB
}

func NewContactsRepo(db *sql.DB) *ContactsRepo {
	return &ContactsRepo{db: db}
}

func (r *ContactsRepo) Create(ctx context.Context, c contacts.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (
			id, owner_id, name, email, phone, company, position, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.Company, c.Position, c.Notes,
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *ContactsRepo) GetByID(ctx context.Context, id string) (contacts.Contact, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, email, phone, company, position, notes, created_at, updated_at
		FROM contacts
		WHERE id = $1
	`, id)

	var c contacts.Contact
	if err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Position, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return contacts.Contact{}, audit.ErrNotFound
		}
		return contacts.Contact{}, err
	}
	return c, nil
}

func (r *ContactsRepo) List(ctx context.Context, scope visibility.Scope) ([]contacts.Contact, error) {
	clause, args := scopeClause(scope, "owner_id", 1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, email, phone, company, position, notes, created_at, updated_at
		FROM contacts
		WHERE `+clause+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]contacts.Contact, 0)
	for rows.Next() {
		var c contacts.Contact
		if err := rows.Scan(
			&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Position, &c.Notes,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContactsRepo) Update(ctx context.Context, c contacts.Contact, recs []audit.ChangeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE contacts
		SET name = $2, email = $3, phone = $4, company = $5, position = $6, notes = $7, updated_at = $8
		WHERE id = $1
	`, c.ID, c.Name, c.Email, c.Phone, c.Company, c.Position, c.Notes, c.UpdatedAt)
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

func (r *ContactsRepo) Delete(ctx context.Context, id string, terminal audit.ChangeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
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

func (r *ContactsRepo) Count(ctx context.Context, scope visibility.Scope) (int, error) {
	clause, args := scopeClause(scope, "owner_id", 1)

	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contacts WHERE `+clause,
		args...).Scan(&n)
	return n, err
}
