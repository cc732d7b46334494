package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/jobhook/pkg/evidence"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" keeps the database in memory.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/evidence.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements evidence.Storage using SQLite.
type SQLiteStorage struct {
	db        *sql.DB
	config    *SQLiteConfig
	insert    *sql.Stmt
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSQLiteStorage opens (or creates) the database, enables WAL mode if
// configured and applies the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, evidence.NewStorageError("sqlite", "open", fmt.Errorf("db path cannot be empty"))
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	db, err := sql.Open("sqlite", dataSourceName(config))
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	// An in-memory database exists per connection.
	if config.Path == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if config.MaxOpenConns > 0 {
			db.SetMaxOpenConns(config.MaxOpenConns)
		}
		if config.MaxIdleConns > 0 {
			db.SetMaxIdleConns(config.MaxIdleConns)
		}
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up pragmas, the schema and prepared statements.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode && s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.insert, err = s.db.Prepare(`INSERT INTO decisions (` + decisionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return evidence.NewStorageError("sqlite", "prepare", err)
	}

	return nil
}

// Store persists a decision record.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.DecisionRecord) error {
	rules, err := json.Marshal(record.Rules)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	failed, err := json.Marshal(record.FailedActions)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}

	_, err = s.insert.ExecContext(ctx,
		record.ID, record.EvaluationID,
		unixNano(record.EvaluatedAt), unixNano(record.RecordedTime),
		nullString(record.JobID), nullString(record.Username), record.PrinterName,
		nullString(record.DocumentName), unixNano(record.SubmittedAt),
		record.AnalysisComplete, record.IsColor, record.TotalPages, record.Cost,
		record.Disposition, record.FinalState, nullString(record.PromptResponse),
		nullString(record.RedirectTarget), string(rules), string(failed), len(record.FailedActions),
		int64(record.EvaluationTime), record.RecordHash,
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves records matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.DecisionRecord, error) {
	if query == nil {
		query = &evidence.Query{}
	}

	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + decisionColumns + " FROM decisions"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	order := "DESC"
	if query.SortOrder == "asc" {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY evaluated_at %s, id %s", order, order)

	// SQLite requires LIMIT before OFFSET; -1 means no limit.
	limit := -1
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*evidence.DecisionRecord{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	if query == nil {
		query = &evidence.Query{}
	}

	whereClause, args := buildWhereClause(query)
	sqlQuery := "SELECT COUNT(*) FROM decisions"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes records matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	if query == nil {
		query = &evidence.Query{}
	}

	whereClause, args := buildWhereClause(query)

	var sqlQuery string
	if query.Limit > 0 {
		inner := "SELECT id FROM decisions"
		if whereClause != "" {
			inner += " WHERE " + whereClause
		}
		inner += fmt.Sprintf(" ORDER BY evaluated_at ASC, id ASC LIMIT %d", query.Limit)
		sqlQuery = "DELETE FROM decisions WHERE id IN (" + inner + ")"
	} else {
		sqlQuery = "DELETE FROM decisions"
		if whereClause != "" {
			sqlQuery += " WHERE " + whereClause
		}
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases the prepared statement and the database handle.
func (s *SQLiteStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.insert != nil {
			s.insert.Close()
		}
		if cerr := s.db.Close(); cerr != nil {
			err = evidence.NewStorageError("sqlite", "close", cerr)
			return
		}
		s.logger.Info("SQLite storage closed")
	})
	return err
}

// buildWhereClause builds a SQL WHERE clause (without the keyword) and its arguments.
func buildWhereClause(query *evidence.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "evaluated_at >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "evaluated_at <= ?")
		args = append(args, query.EndTime.UnixNano())
	}
	if query.JobID != "" {
		conditions = append(conditions, "job_id = ?")
		args = append(args, query.JobID)
	}
	if query.Username != "" {
		conditions = append(conditions, "username = ?")
		args = append(args, query.Username)
	}
	if query.PrinterName != "" {
		conditions = append(conditions, "printer_name = ?")
		args = append(args, query.PrinterName)
	}
	if query.Disposition != "" {
		conditions = append(conditions, "disposition = ?")
		args = append(args, query.Disposition)
	}
	if query.RedirectTarget != "" {
		conditions = append(conditions, "redirect_target = ?")
		args = append(args, query.RedirectTarget)
	}
	if query.Rule != "" {
		conditions = append(conditions, `EXISTS (SELECT 1 FROM json_each(decisions.rules)
			WHERE json_extract(value, '$.rule') = ? AND json_extract(value, '$.matched') = 1)`)
		args = append(args, query.Rule)
	}
	if query.HasFailures != nil {
		if *query.HasFailures {
			conditions = append(conditions, "failure_count > 0")
		} else {
			conditions = append(conditions, "failure_count = 0")
		}
	}

	return strings.Join(conditions, " AND "), args
}

// scanRow scans a database row into a DecisionRecord.
func scanRow(row *sql.Rows) (*evidence.DecisionRecord, error) {
	var record evidence.DecisionRecord
	var evaluatedAt, recordedTime, submittedAt, evaluationTime int64
	var jobID, username, documentName, promptResponse, redirectTarget, rules, failed sql.NullString
	var failureCount int

	err := row.Scan(
		&record.ID, &record.EvaluationID,
		&evaluatedAt, &recordedTime,
		&jobID, &username, &record.PrinterName, &documentName, &submittedAt,
		&record.AnalysisComplete, &record.IsColor, &record.TotalPages, &record.Cost,
		&record.Disposition, &record.FinalState, &promptResponse, &redirectTarget, &rules, &failed, &failureCount,
		&evaluationTime, &record.RecordHash,
	)
	if err != nil {
		return nil, err
	}

	record.EvaluatedAt = fromUnixNano(evaluatedAt)
	record.RecordedTime = fromUnixNano(recordedTime)
	record.SubmittedAt = fromUnixNano(submittedAt)
	record.EvaluationTime = time.Duration(evaluationTime)
	record.JobID = jobID.String
	record.Username = username.String
	record.DocumentName = documentName.String
	record.PromptResponse = promptResponse.String
	record.RedirectTarget = redirectTarget.String

	if rules.Valid && rules.String != "" {
		if err := json.Unmarshal([]byte(rules.String), &record.Rules); err != nil {
			return nil, fmt.Errorf("decode rules: %w", err)
		}
	}
	if failed.Valid && failed.String != "" {
		if err := json.Unmarshal([]byte(failed.String), &record.FailedActions); err != nil {
			return nil, fmt.Errorf("decode failed actions: %w", err)
		}
	}

	return &record, nil
}

// dataSourceName sets busy_timeout on every pooled connection through the DSN.
func dataSourceName(config *SQLiteConfig) string {
	if config.Path == ":memory:" || config.BusyTimeout <= 0 {
		return config.Path
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", config.Path, config.BusyTimeout.Milliseconds())
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
