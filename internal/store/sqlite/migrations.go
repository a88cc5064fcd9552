package sqlite

import (
	"database/sql"
	"fmt"

	"golang.org/x/mod/semver"
)

// currentSchemaVersion is the schema version this binary targets. Unlike
// untoldecay/BeadsLog's name-keyed idempotent migration list
// (internal/storage/sqlite/migrations.go's migrationsList), spec.md §4.8
// requires a version-numbered forward-only scheme: a map {k ->
// migrate_k_to_k+1}, applied in order inside one transaction, with missing
// intermediate entries treated as no-ops.
const currentSchemaVersion = 2

// migrations maps a source version k to the function that migrates the
// database from k to k+1.
var migrations = map[int]func(*sql.Tx) error{
	1: migrate1to2,
}

// migrate1to2 adds the indices spec.md §6 names.
func migrate1to2(tx *sql.Tx) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_assessments_repo_created ON assessments(repo_path, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_created ON assessments(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_mutation_cache_assessment_file ON mutation_cache(assessment_id, file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_baselines_repo_created ON baselines(repo_path, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_assessment_created ON feedback(assessment_id, created_at DESC)`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// runMigrations reads meta.schema_version (defaulting to 1 for a freshly
// created database, since schema.go's base tables are already v1-shaped)
// and applies migrate_v..migrate_{currentSchemaVersion-1} in order, inside
// one transaction, updating the meta row at the end.
func runMigrations(db *sql.DB) error {
	version, err := readSchemaVersion(db)
	if err != nil {
		return err
	}
	if cmp := semver.Compare(schemaSemver(version), schemaSemver(currentSchemaVersion)); cmp > 0 {
		return fmt.Errorf("database schema %s is newer than this binary's target %s; upgrade seraph", schemaSemver(version), schemaSemver(currentSchemaVersion))
	} else if cmp == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for v := version; v < currentSchemaVersion; v++ {
		migrate, ok := migrations[v]
		if !ok {
			continue // missing intermediate entries are no-ops by construction
		}
		if err := migrate(tx); err != nil {
			return err
		}
	}

	if err := writeSchemaVersion(tx, currentSchemaVersion); err != nil {
		return err
	}
	return tx.Commit()
}

func readSchemaVersion(db *sql.DB) (int, error) {
	var raw string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 1, nil
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func writeSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec(`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, itoa(version))
	return err
}

// schemaSemver renders a bare schema version int as a comparable semver
// string so golang.org/x/mod/semver can order it against the binary's
// compiled-in target, the same compatibility check BeadsLog performs
// against its own CLI/schema version pairing.
func schemaSemver(version int) string {
	return fmt.Sprintf("v%d.0.0", version)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
