// Package postgres implements the repository interfaces declared in
// internal/domain/repositories against a pgx connection pool, following
// haowjy-meridian/internal/repository/postgres's pool/table-prefix/
// transaction-context conventions.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"veritas/internal/domain/repositories"
)

// RepositoryConfig holds shared configuration for repository implementations.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds the dynamically prefixed table names backing each
// repository (spec §3's storage mapping).
type TableNames struct {
	Debates       string
	Turns         string
	EvidenceItems string
	MemoryRecords string
	Chats         string
	ChatMessages  string
}

// NewTableNames builds TableNames with the given environment prefix
// (e.g. "dev_", "prod_", or "").
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Debates:       fmt.Sprintf("%sdebates", prefix),
		Turns:         fmt.Sprintf("%sturns", prefix),
		EvidenceItems: fmt.Sprintf("%sevidence_items", prefix),
		MemoryRecords: fmt.Sprintf("%smemory_records", prefix),
		Chats:         fmt.Sprintf("%schats", prefix),
		ChatMessages:  fmt.Sprintf("%schat_messages", prefix),
	}
}

// CreateConnectionPool creates a pgx pool with automatic PgBouncer
// compatibility: port 6543 (a transaction-pooling proxy) doesn't support
// prepared statements, so that port auto-switches to
// QueryExecModeCacheDescribe, which still uses the extended protocol
// (needed to encode map[string]interface{} into JSONB) without
// preparing statements server-side. An explicit
// ?default_query_exec_mode=... in databaseURL always takes precedence.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, letting a
// repository method run unchanged whether or not a transaction is active.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetExecutor returns the active transaction from ctx if one was
// attached via repositories.WithTx, else pool.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		if dbtx, ok := tx.(DBTX); ok {
			return dbtx
		}
	}
	return pool
}
