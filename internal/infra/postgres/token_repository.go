package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"labops/internal/tokens"
)

const tokenSchema = `CREATE TABLE IF NOT EXISTS api_tokens (
	token TEXT PRIMARY KEY,
	rate_limit INTEGER NOT NULL DEFAULT 60,
	scope JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	comment TEXT
);`

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, tokenSchema)
	return err
}

// TokenRepository reads the API token table for the auth middleware.
type TokenRepository struct {
	DB  *DB
	DSN string
}

func NewTokenRepository(db *DB, dsn string) *TokenRepository {
	return &TokenRepository{DB: db, DSN: dsn}
}

// LoadTokens returns the full token table. The schema is created on
// first use so a fresh database needs no migration step.
func (r *TokenRepository) LoadTokens(ctx context.Context) (map[string]tokens.Entry, error) {
	db, err := r.DB.Get(r.DSN)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := ensureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure token schema: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT token, rate_limit, scope FROM api_tokens;`)
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	defer rows.Close()

	out := make(map[string]tokens.Entry)
	for rows.Next() {
		var (
			token    string
			limit    int
			scopeRaw []byte
		)
		if err := rows.Scan(&token, &limit, &scopeRaw); err != nil {
			return nil, err
		}
		entry := tokens.Entry{RateLimit: limit}
		if len(scopeRaw) > 0 {
			if err := json.Unmarshal(scopeRaw, &entry.Scope); err != nil {
				return nil, fmt.Errorf("decode token scope: %w", err)
			}
		}
		out[token] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
