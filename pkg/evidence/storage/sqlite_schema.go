package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the decision evidence tables. Timestamps are stored as Unix
// nanoseconds; durations as nanoseconds. Zero times are stored as 0.
const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id TEXT PRIMARY KEY,
    evaluation_id TEXT NOT NULL,

    -- Timestamps
    evaluated_at INTEGER NOT NULL,
    recorded_time INTEGER NOT NULL,

    -- Job identity
    job_id TEXT,
    username TEXT,
    printer_name TEXT NOT NULL,
    document_name TEXT,
    submitted_at INTEGER,

    -- Analysis results
    analysis_complete BOOLEAN NOT NULL,
    is_color BOOLEAN NOT NULL,
    total_pages INTEGER NOT NULL,
    cost REAL NOT NULL,

    -- Outcome
    disposition TEXT NOT NULL,
    final_state TEXT NOT NULL,
    prompt_response TEXT,
    redirect_target TEXT,
    rules TEXT,
    failed_actions TEXT,
    failure_count INTEGER NOT NULL DEFAULT 0,

    evaluation_time INTEGER NOT NULL,
    record_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_evaluated_at ON decisions(evaluated_at);
CREATE INDEX IF NOT EXISTS idx_decisions_job_id ON decisions(job_id);
CREATE INDEX IF NOT EXISTS idx_decisions_username ON decisions(username);
CREATE INDEX IF NOT EXISTS idx_decisions_printer_name ON decisions(printer_name);
CREATE INDEX IF NOT EXISTS idx_decisions_disposition ON decisions(disposition);
CREATE INDEX IF NOT EXISTS idx_decisions_evaluation_id ON decisions(evaluation_id);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// decisionColumns lists the columns in scan order.
const decisionColumns = `id, evaluation_id,
	evaluated_at, recorded_time,
	job_id, username, printer_name, document_name, submitted_at,
	analysis_complete, is_color, total_pages, cost,
	disposition, final_state, prompt_response, redirect_target, rules, failed_actions, failure_count,
	evaluation_time, record_hash`
