package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyua/internal/kyuaerr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTripsResults(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)

	ctxID, err := tx.PutContext("/home/user", map[string]string{"PATH": "/bin"})
	require.NoError(t, err)

	actionID, err := tx.PutAction(ctxID)
	require.NoError(t, err)

	progID, err := tx.PutTestProgram(actionID, "/opt/tests/t1", "mysuite")
	require.NoError(t, err)

	caseID, err := tx.PutTestCase(progID, "case1", map[string]string{"descr": "checks something"})
	require.NoError(t, err)

	_, err = tx.PutResult(caseID, TestResult{Kind: KindPassed})
	require.NoError(t, err)

	require.NoError(t, tx.Commit())

	it, err := s.ResultsIterator(actionID)
	require.NoError(t, err)
	defer it.Close()

	row, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/opt/tests/t1", row.BinaryPath)
	assert.Equal(t, "case1", row.CaseName)
	assert.Equal(t, TestResult{Kind: KindPassed}, row.Result)

	_, ok, err = it.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePreservesReasonOnFailed(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	ctxID, err := tx.PutContext("/home/user", nil)
	require.NoError(t, err)
	actionID, err := tx.PutAction(ctxID)
	require.NoError(t, err)
	progID, err := tx.PutTestProgram(actionID, "/opt/tests/t1", "mysuite")
	require.NoError(t, err)
	caseID, err := tx.PutTestCase(progID, "case1", nil)
	require.NoError(t, err)
	_, err = tx.PutResult(caseID, TestResult{Kind: KindFailed, Reason: "disk full"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	it, err := s.ResultsIterator(actionID)
	require.NoError(t, err)
	defer it.Close()

	row, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TestResult{Kind: KindFailed, Reason: "disk full"}, row.Result)
}

func TestStoreRollbackDiscardsUncommittedWrites(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	ctxID, err := tx.PutContext("/home/user", nil)
	require.NoError(t, err)
	actionID, err := tx.PutAction(ctxID)
	require.NoError(t, err)
	progID, err := tx.PutTestProgram(actionID, "/opt/tests/t1", "mysuite")
	require.NoError(t, err)
	_, err = tx.PutTestCase(progID, "case1", nil)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	it, err := s.ResultsIterator(actionID)
	require.NoError(t, err)
	defer it.Close()

	_, ok, err := it.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultsIteratorRejectsPassedWithReason(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	ctxID, err := tx.PutContext("/home/user", nil)
	require.NoError(t, err)
	actionID, err := tx.PutAction(ctxID)
	require.NoError(t, err)
	progID, err := tx.PutTestProgram(actionID, "/opt/tests/t1", "mysuite")
	require.NoError(t, err)
	caseID, err := tx.PutTestCase(progID, "case1", nil)
	require.NoError(t, err)

	// Insert a malformed row directly: a "passed" result with a non-null
	// reason, which PutResult itself would never produce.
	_, err = tx.tx.Exec("INSERT INTO results (test_case_id, kind, reason) VALUES (?, 'passed', 'should not be here')", caseID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	it, err := s.ResultsIterator(actionID)
	require.NoError(t, err)
	defer it.Close()

	_, _, err = it.Next()
	require.Error(t, err)
	var integrityErr *kyuaerr.IntegrityError
	assert.ErrorAs(t, err, &integrityErr)
}
