package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cxc-ai/catalog-bot/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS call_logs (
	id            TEXT PRIMARY KEY,
	ts            DATETIME NOT NULL,
	portal        TEXT NOT NULL,
	endpoint      TEXT NOT NULL,
	source        TEXT NOT NULL,
	provider      TEXT NOT NULL DEFAULT '',
	success       INTEGER NOT NULL,
	response_time REAL NOT NULL,
	model_number  TEXT NOT NULL DEFAULT '',
	brand         TEXT NOT NULL DEFAULT '',
	user_agent    TEXT NOT NULL DEFAULT '',
	tokens_used   INTEGER NOT NULL DEFAULT 0,
	completeness  REAL NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_call_logs_ts ON call_logs(ts);
CREATE INDEX IF NOT EXISTS idx_call_logs_portal ON call_logs(portal);
CREATE INDEX IF NOT EXISTS idx_call_logs_provider ON call_logs(provider);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertCallLog(ctx context.Context, entry *model.CallLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO call_logs
			(id, ts, portal, endpoint, source, provider, success, response_time,
			 model_number, brand, user_agent, tokens_used, completeness, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, string(entry.Portal), entry.Endpoint,
		string(entry.Source), entry.Provider, entry.Success, entry.ResponseTime,
		entry.ModelNumber, entry.Brand, entry.UserAgent, entry.TokensUsed,
		entry.Completeness, entry.Error,
	)
	return eris.Wrap(err, "sqlite: insert call log")
}

func (s *SQLiteStore) ListCallLogs(ctx context.Context, filter LogFilter) ([]model.CallLog, error) {
	query := `SELECT id, ts, portal, endpoint, source, provider, success, response_time,
		model_number, brand, user_agent, tokens_used, completeness, error
		FROM call_logs WHERE 1=1`
	var args []any

	if filter.Portal != "" {
		query += " AND portal = ?"
		args = append(args, string(filter.Portal))
	}
	if filter.Provider != "" {
		query += " AND provider = ?"
		args = append(args, filter.Provider)
	}
	query += " ORDER BY ts DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list call logs")
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
			return nil, eris.Wrap(err, "sqlite: scan call log")
		}
		logs = append(logs, entry)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: iterate call logs")
}

func (s *SQLiteStore) PruneCallLogs(ctx context.Context, keep int) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM call_logs WHERE id NOT IN
			(SELECT id FROM call_logs ORDER BY ts DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune call logs")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune rows affected")
	}
	return int(n), nil
}

func (s *SQLiteStore) ProviderStats(ctx context.Context, provider string, portal model.Portal) (*model.ProviderStats, error) {
	stats := &model.ProviderStats{Provider: provider}

	where := " WHERE provider = ?"
	args := []any{provider}
	if portal != "" {
		where += " AND portal = ?"
		args = append(args, string(portal))
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(success), 0),
			COALESCE(AVG(CASE WHEN success = 1 THEN response_time END), 0),
			COALESCE(SUM(CASE WHEN success = 1 THEN tokens_used ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN success = 1 AND completeness > 0 THEN completeness END), 0)
		 FROM call_logs`+where,
		args...,
	).Scan(&stats.TotalRequests, &stats.SuccessfulRequests, &stats.AvgResponseTime,
		&stats.TotalTokensUsed, &stats.AvgCompleteness)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: provider stats")
	}
	stats.FailedRequests = stats.TotalRequests - stats.SuccessfulRequests
	if stats.SuccessfulRequests > 0 {
		stats.AvgTokens = stats.TotalTokensUsed / stats.SuccessfulRequests
	}

	if stats.TotalRequests > 0 {
		var last time.Time
		err = s.db.QueryRowContext(ctx,
			`SELECT ts FROM call_logs`+where+` ORDER BY ts DESC LIMIT 1`,
			args...,
		).Scan(&last)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: provider last used")
		}
		stats.LastUsed = &last
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT error FROM call_logs`+where+` AND error != '' ORDER BY ts DESC LIMIT 10`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: provider errors")
	}
	defer rows.Close()
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan provider error")
		}
		stats.RecentErrors = append(stats.RecentErrors, msg)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: iterate provider errors")
}

func (s *SQLiteStore) PortalStats(ctx context.Context, portal model.Portal) (*model.PortalStats, error) {
	stats := &model.PortalStats{Portal: portal}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(success), 0),
			COALESCE(AVG(CASE WHEN success = 1 THEN response_time END), 0),
			COALESCE(SUM(CASE WHEN source = 'ui' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN source = 'api' THEN 1 ELSE 0 END), 0)
		 FROM call_logs WHERE portal = ?`,
		string(portal),
	).Scan(&stats.TotalRequests, &stats.SuccessfulRequests, &stats.AvgResponseTime,
		&stats.UICalls, &stats.APICalls)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: portal stats")
	}
	stats.FailedRequests = stats.TotalRequests - stats.SuccessfulRequests

	if stats.TotalRequests > 0 {
		var last time.Time
		err = s.db.QueryRowContext(ctx,
			`SELECT ts FROM call_logs WHERE portal = ? ORDER BY ts DESC LIMIT 1`,
			string(portal),
		).Scan(&last)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: portal last used")
		}
		stats.LastUsed = &last
	}
	return stats, nil
}
