// Package postgres implementa los repositorios sobre Postgres vía pgx
// (database/sql). La invariante central vive acá: entidad + historial se
// escriben en la misma transacción.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"crm-backend/internal/domain/visibility"
)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// defaults razonables para arrancar (ajustable luego)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// scopeClause traduce el scope de visibilidad a un predicado SQL sobre la
// columna de dueño. El team scope resuelve el equipo del dueño con un
// subquery a users; firstArg es el índice del próximo placeholder.
func scopeClause(scope visibility.Scope, ownerCol string, firstArg int) (string, []any) {
	switch scope.Kind {
	case visibility.ScopeAll:
		return "TRUE", nil
	case visibility.ScopeTeam:
		return fmt.Sprintf("%s IN (SELECT id FROM users WHERE team_id = $%d)", ownerCol, firstArg),
			[]any{scope.TeamID}
	case visibility.ScopeOwner:
		return fmt.Sprintf("%s = $%d", ownerCol, firstArg), []any{scope.OwnerID}
	default:
		// fail closed
		return "FALSE", nil
	}
}
