// Package store implements the C6 transaction layer: a database/sql +
// github.com/mattn/go-sqlite3 backend grounded on the teacher's
// internal/store/local_core.go open/pragma/schema-init sequence and
// internal/types/transaction.go's buffer-then-commit shape.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"kyua/internal/kyuaerr"
	"kyua/internal/logging"
)

// ResultKind is one of the five result kinds §4.6 persists.
type ResultKind string

const (
	KindPassed          ResultKind = "passed"
	KindFailed          ResultKind = "failed"
	KindBroken          ResultKind = "broken"
	KindSkipped         ResultKind = "skipped"
	KindExpectedFailure ResultKind = "expected_failure"
)

// TestResult is the store's own result shape: deliberately independent of
// internal/resultproto/atf's TestResult so the store stays a generic
// persistence contract rather than coupling to one wire format.
type TestResult struct {
	Kind   ResultKind
	Reason string
}

// Store owns a single SQLite connection and the schema this engine needs.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and its parent directory) if necessary,
// applies the teacher's pragma sequence, and ensures the schema exists.
func Open(path string) (*Store, error) {
	log := logging.Get(logging.CategoryStore)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, kyuaerr.NewStoreError("create store directory "+dir, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, kyuaerr.NewStoreError("open store "+path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Warnf("failed to apply %q: %v", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, kyuaerr.NewStoreError("initialize schema", err)
	}

	log.Infof("opened store at %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin opens a write transaction, buffered until Commit per §5's "the
// database transaction serializes all writes" guarantee.
func (s *Store) Begin() (*Tx, error) {
	sqlTx, err := s.db.Begin()
	if err != nil {
		return nil, kyuaerr.NewStoreError("begin transaction", err)
	}
	return &Tx{tx: sqlTx}, nil
}

// Tx wraps *sql.Tx with the five typed put_* methods of §4.6.
type Tx struct {
	tx *sql.Tx
}

// PutContext records the environment a test run executed under and returns
// its row id.
func (t *Tx) PutContext(cwd string, env map[string]string) (int64, error) {
	res, err := t.tx.Exec("INSERT INTO contexts (cwd) VALUES (?)", cwd)
	if err != nil {
		return 0, kyuaerr.NewStoreError("put_context", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, kyuaerr.NewStoreError("put_context", err)
	}
	for name, value := range env {
		if _, err := t.tx.Exec("INSERT INTO context_env (context_id, name, value) VALUES (?, ?, ?)", id, name, value); err != nil {
			return 0, kyuaerr.NewStoreError("put_context: env "+name, err)
		}
	}
	return id, nil
}

// PutAction opens a new action under contextID and returns its row id.
func (t *Tx) PutAction(contextID int64) (int64, error) {
	res, err := t.tx.Exec("INSERT INTO actions (context_id) VALUES (?)", contextID)
	if err != nil {
		return 0, kyuaerr.NewStoreError("put_action", err)
	}
	return res.LastInsertId()
}

// PutTestProgram records a test program under actionID, returning its row
// id. Calling it twice for the same (action, absolute_path) pair returns
// the existing row's id rather than erroring.
func (t *Tx) PutTestProgram(actionID int64, absolutePath, suiteName string) (int64, error) {
	_, err := t.tx.Exec(
		"INSERT INTO test_programs (action_id, absolute_path, suite_name) VALUES (?, ?, ?) "+
			"ON CONFLICT (action_id, absolute_path) DO UPDATE SET suite_name = excluded.suite_name",
		actionID, absolutePath, suiteName)
	if err != nil {
		return 0, kyuaerr.NewStoreError("put_test_program "+absolutePath, err)
	}
	// LastInsertId is not updated when the upsert takes the DO UPDATE path,
	// so the row id is always read back.
	var id int64
	if err := t.tx.QueryRow(
		"SELECT id FROM test_programs WHERE action_id = ? AND absolute_path = ?",
		actionID, absolutePath,
	).Scan(&id); err != nil {
		return 0, kyuaerr.NewStoreError("put_test_program "+absolutePath, err)
	}
	return id, nil
}

// PutTestCase records a test case under testProgramID along with its
// metadata properties, returning its row id.
func (t *Tx) PutTestCase(testProgramID int64, name string, metadataProperties map[string]string) (int64, error) {
	res, err := t.tx.Exec(
		"INSERT INTO test_cases (test_program_id, name) VALUES (?, ?)",
		testProgramID, name)
	if err != nil {
		return 0, kyuaerr.NewStoreError("put_test_case "+name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, kyuaerr.NewStoreError("put_test_case "+name, err)
	}
	for k, v := range metadataProperties {
		if _, err := t.tx.Exec(
			"INSERT INTO test_case_metadata (test_case_id, name, value) VALUES (?, ?, ?)",
			id, k, v); err != nil {
			return 0, kyuaerr.NewStoreError(fmt.Sprintf("put_test_case %s: metadata %s", name, k), err)
		}
	}
	return id, nil
}

// PutResult records result under testCaseID, returning its row id.
// A null reason is bound iff kind is KindPassed, per §4.6.
func (t *Tx) PutResult(testCaseID int64, result TestResult) (int64, error) {
	var reason sql.NullString
	if result.Kind != KindPassed && result.Reason != "" {
		reason = sql.NullString{String: result.Reason, Valid: true}
	}
	res, err := t.tx.Exec(
		"INSERT INTO results (test_case_id, kind, reason) VALUES (?, ?, ?)",
		testCaseID, string(result.Kind), reason)
	if err != nil {
		return 0, kyuaerr.NewStoreError("put_result", err)
	}
	return res.LastInsertId()
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return kyuaerr.NewStoreError("commit", err)
	}
	return nil
}

// Rollback aborts the transaction. Safe to call after Commit has already
// failed; redundant calls after a successful Commit are reported by
// database/sql and ignored.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return kyuaerr.NewStoreError("rollback", err)
	}
	return nil
}

// LatestActionID returns the id of the most recently opened action, for
// callers (the report subcommand) that don't have one on hand already.
func (s *Store) LatestActionID() (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM actions ORDER BY id DESC LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		return 0, kyuaerr.NewUsageError("store contains no actions")
	}
	if err != nil {
		return 0, kyuaerr.NewStoreError("latest_action_id", err)
	}
	return id, nil
}

// ResultRow is one tuple yielded by ResultsIterator.
type ResultRow struct {
	BinaryPath string
	CaseName   string
	Result     TestResult
}

// ResultsIterator is a lazy, *sql.Rows-backed cursor over an action's
// results, implementing §4.6's read-side contract.
type ResultsIterator struct {
	rows *sql.Rows
}

// ResultsIterator opens a lazy cursor over actionID's (binary_path,
// case_name, kind, reason) tuples.
func (s *Store) ResultsIterator(actionID int64) (*ResultsIterator, error) {
	rows, err := s.db.Query(`
		SELECT tp.absolute_path, tc.name, r.kind, r.reason
		FROM results r
		JOIN test_cases tc ON tc.id = r.test_case_id
		JOIN test_programs tp ON tp.id = tc.test_program_id
		WHERE tp.action_id = ?
		ORDER BY r.id ASC
	`, actionID)
	if err != nil {
		return nil, kyuaerr.NewStoreError("results_iterator", err)
	}
	return &ResultsIterator{rows: rows}, nil
}

// Next advances the cursor. ok is false once exhausted. A malformed row
// (e.g. a passed result carrying a non-null reason) yields an
// *kyuaerr.IntegrityError rather than a usable row.
func (it *ResultsIterator) Next() (row ResultRow, ok bool, err error) {
	if !it.rows.Next() {
		return ResultRow{}, false, it.rows.Err()
	}

	var kind string
	var reason sql.NullString
	if err := it.rows.Scan(&row.BinaryPath, &row.CaseName, &kind, &reason); err != nil {
		return ResultRow{}, false, kyuaerr.NewStoreError("results_iterator: scan", err)
	}

	row.Result.Kind = ResultKind(kind)
	if row.Result.Kind == KindPassed && reason.Valid {
		return ResultRow{}, false, kyuaerr.NewIntegrityError(
			"result for %s:%s is passed but carries a reason %q", row.BinaryPath, row.CaseName, reason.String)
	}
	if reason.Valid {
		row.Result.Reason = reason.String
	}
	return row, true, nil
}

// Close releases the underlying *sql.Rows.
func (it *ResultsIterator) Close() error {
	return it.rows.Close()
}
