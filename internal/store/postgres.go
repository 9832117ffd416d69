package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cxc-ai/catalog-bot/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS call_logs (
	id            UUID PRIMARY KEY,
	ts            TIMESTAMPTZ NOT NULL,
	portal        TEXT NOT NULL,
	endpoint      TEXT NOT NULL,
	source        TEXT NOT NULL,
	provider      TEXT NOT NULL DEFAULT '',
	success       BOOLEAN NOT NULL,
	response_time DOUBLE PRECISION NOT NULL,
	model_number  TEXT NOT NULL DEFAULT '',
	brand         TEXT NOT NULL DEFAULT '',
	user_agent    TEXT NOT NULL DEFAULT '',
	tokens_used   INTEGER NOT NULL DEFAULT 0,
	completeness  DOUBLE PRECISION NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_call_logs_ts ON call_logs(ts);
CREATE INDEX IF NOT EXISTS idx_call_logs_portal ON call_logs(portal);
CREATE INDEX IF NOT EXISTS idx_call_logs_provider ON call_logs(provider);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertCallLog(ctx context.Context, entry *model.CallLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO call_logs
			(id, ts, portal, endpoint, source, provider, success, response_time,
			 model_number, brand, user_agent, tokens_used, completeness, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID, entry.Timestamp, string(entry.Portal), entry.Endpoint,
		string(entry.Source), entry.Provider, entry.Success, entry.ResponseTime,
		entry.ModelNumber, entry.Brand, entry.UserAgent, entry.TokensUsed,
		entry.Completeness, entry.Error,
	)
	return eris.Wrap(err, "postgres: insert call log")
}

func (s *PostgresStore) ListCallLogs(ctx context.Context, filter LogFilter) ([]model.CallLog, error) {
	query := `SELECT id, ts, portal, endpoint, source, provider, success, response_time,
		model_number, brand, user_agent, tokens_used, completeness, error
		FROM call_logs WHERE 1=1`
	var args []any

	if filter.Portal != "" {
		args = append(args, string(filter.Portal))
		query += " AND portal = $" + strconv.Itoa(len(args))
	}
	if filter.Provider != "" {
		args = append(args, filter.Provider)
		query += " AND provider = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY ts DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += " OFFSET $" + strconv.Itoa(len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list call logs")
	}
	defer rows.Close()

	var logs []model.CallLog
	for rows.Next() {
		var entry model.CallLog
		if err := rows.Scan(
			&entry.ID, &entry.Timestamp, &entry.Portal, &entry.Endpoint,
			&entry.Source, &entry.Provider, &entry.Success, &entry.ResponseTime,
			&entry.ModelNumber, &entry.Brand, &entry.UserAgent, &entry.TokensUsed,
			&entry.Completeness, &entry.Error,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan call log")
		}
		logs = append(logs, entry)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: iterate call logs")
}

func (s *PostgresStore) PruneCallLogs(ctx context.Context, keep int) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM call_logs WHERE id NOT IN
			(SELECT id FROM call_logs ORDER BY ts DESC LIMIT $1)`,
		keep,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune call logs")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ProviderStats(ctx context.Context, provider string, portal model.Portal) (*model.ProviderStats, error) {
	stats := &model.ProviderStats{Provider: provider}

	// $2 = '' matches all portals.
	var lastUsed *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COALESCE(AVG(response_time) FILTER (WHERE success), 0),
			COALESCE(SUM(tokens_used) FILTER (WHERE success), 0),
			COALESCE(AVG(completeness) FILTER (WHERE success AND completeness > 0), 0),
			MAX(ts)
		 FROM call_logs WHERE provider = $1 AND ($2 = '' OR portal = $2)`,
		provider, string(portal),
	).Scan(&stats.TotalRequests, &stats.SuccessfulRequests, &stats.AvgResponseTime,
		&stats.TotalTokensUsed, &stats.AvgCompleteness, &lastUsed)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: provider stats")
	}
	stats.FailedRequests = stats.TotalRequests - stats.SuccessfulRequests
	if stats.SuccessfulRequests > 0 {
		stats.AvgTokens = stats.TotalTokensUsed / stats.SuccessfulRequests
	}
	stats.LastUsed = lastUsed

	rows, err := s.pool.Query(ctx,
		`SELECT error FROM call_logs
		 WHERE provider = $1 AND ($2 = '' OR portal = $2) AND error != ''
		 ORDER BY ts DESC LIMIT 10`,
		provider, string(portal),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: provider errors")
	}
	defer rows.Close()
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, eris.Wrap(err, "postgres: scan provider error")
		}
		stats.RecentErrors = append(stats.RecentErrors, msg)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: iterate provider errors")
}

func (s *PostgresStore) PortalStats(ctx context.Context, portal model.Portal) (*model.PortalStats, error) {
	stats := &model.PortalStats{Portal: portal}

	var lastUsed *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COALESCE(AVG(response_time) FILTER (WHERE success), 0),
			COUNT(*) FILTER (WHERE source = 'ui'),
			COUNT(*) FILTER (WHERE source = 'api'),
			MAX(ts)
		 FROM call_logs WHERE portal = $1`,
		string(portal),
	).Scan(&stats.TotalRequests, &stats.SuccessfulRequests, &stats.AvgResponseTime,
		&stats.UICalls, &stats.APICalls, &lastUsed)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: portal stats")
	}
	stats.FailedRequests = stats.TotalRequests - stats.SuccessfulRequests
	stats.LastUsed = lastUsed
	return stats, nil
}
