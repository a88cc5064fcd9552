package sqlite

// schema is the base (v1) table set, embedded as a Go string constant, the
// convention untoldecay/BeadsLog's internal/storage/sqlite/schema.go uses.
// Table shapes are grounded on verdict/core/store.py's _SCHEMA_SQL and
// spec.md §4.8.
const schema = `
CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
    id                TEXT PRIMARY KEY,
    repo_path         TEXT NOT NULL,
    ref_before        TEXT,
    ref_after         TEXT,
    files_changed     TEXT NOT NULL DEFAULT '[]',
    mutation_score    REAL,
    static_issues     INTEGER,
    sentinel_warnings INTEGER,
    baseline_flaky    INTEGER NOT NULL DEFAULT 0,
    grade             TEXT NOT NULL DEFAULT '',
    report_json       TEXT NOT NULL,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS mutation_cache (
    id            TEXT PRIMARY KEY,
    assessment_id TEXT NOT NULL REFERENCES assessments(id),
    file_path     TEXT NOT NULL,
    mutant_id     TEXT NOT NULL,
    operator      TEXT NOT NULL DEFAULT '',
    line_number   INTEGER,
    status        TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS baselines (
    id          TEXT PRIMARY KEY,
    repo_path   TEXT NOT NULL,
    test_cmd    TEXT NOT NULL DEFAULT '',
    run_count   INTEGER NOT NULL DEFAULT 3,
    flaky_tests TEXT NOT NULL DEFAULT '[]',
    pass_rate   REAL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS feedback (
    id            TEXT PRIMARY KEY,
    assessment_id TEXT NOT NULL REFERENCES assessments(id),
    outcome       TEXT NOT NULL,
    context       TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
