// Package driver implements the orchestration half of C5: Driver.Run loads
// a manifest, opens the store, drives the scanner, invokes the runner for
// each yielded case, and persists every outcome within one transaction.
//
// The Hooks shape is carried over from the teacher's
// AuditEvent/auditCallback pattern (internal/tactile/audit.go): a small
// callback interface invoked around each unit of work, stripped of the
// Mangle fact-emission method (ToFacts), which has no home in this domain.
package driver

import (
	"context"
	"os"

	"github.com/google/uuid"

	"kyua/internal/config"
	"kyua/internal/kyuaerr"
	"kyua/internal/logging"
	"kyua/internal/manifest"
	"kyua/internal/metadata"
	"kyua/internal/resultproto/atf"
	"kyua/internal/runner"
	"kyua/internal/scanner"
	"kyua/internal/store"
	"kyua/internal/testcase"
)

// Hooks receives progress notifications as the driver runs each test case.
type Hooks interface {
	Started(id testcase.CaseID)
	Finished(id testcase.CaseID, result atf.TestResult)
}

// NopHooks implements Hooks with no-ops, for callers that don't need live
// progress output.
type NopHooks struct{}

func (NopHooks) Started(testcase.CaseID)                     {}
func (NopHooks) Finished(testcase.CaseID, atf.TestResult) {}

// Outcome is what Driver.Run returns: the persisted action's id, the
// filters that never matched anything, and the run's correlation id.
type Outcome struct {
	ActionID      int64
	UnusedFilters []scanner.Filter
	RunID         string
}

// Driver orchestrates one full run of a test suite.
type Driver struct{}

// Run implements §4.5's five-step orchestration: load manifest, open the
// store read-write, persist a Context and open an Action, scan+run+persist
// each case, then commit. Any uncaught error from the scanner or the
// runner aborts the run after rolling back the transaction; the hooks will
// have already seen only the results observed before the abort.
func (Driver) Run(ctx context.Context, manifestPath, storePath string, filters []scanner.Filter, cfg *config.Config, hooks Hooks) (Outcome, error) {
	log := logging.Get(logging.CategoryScanner)

	if hooks == nil {
		hooks = NopHooks{}
	}

	// runID tags the driver's own start and completion log lines, the way
	// the teacher's audit events carry a request id; the runner's and
	// supervisor's log lines do not carry it.
	runID := uuid.New().String()
	log.Infof("run %s: starting", runID)

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return Outcome{}, err
	}

	st, err := store.Open(storePath)
	if err != nil {
		return Outcome{}, err
	}
	defer st.Close()

	tx, err := st.Begin()
	if err != nil {
		return Outcome{}, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		tx.Rollback()
		return Outcome{}, kyuaerr.NewSystemError("getwd", err)
	}
	contextID, err := tx.PutContext(cwd, environMap())
	if err != nil {
		tx.Rollback()
		return Outcome{}, err
	}
	actionID, err := tx.PutAction(contextID)
	if err != nil {
		tx.Rollback()
		return Outcome{}, err
	}

	sc, err := scanner.New(m.Programs, filters)
	if err != nil {
		tx.Rollback()
		return Outcome{}, err
	}

	programRowIDs := map[string]int64{}

	for {
		id, meta, ok, err := sc.Next()
		if err != nil {
			tx.Rollback()
			return Outcome{}, err
		}
		if !ok {
			break
		}

		hooks.Started(id)

		result, runErr := runner.Run(ctx, id, meta, cfg, nil)
		if runErr != nil {
			tx.Rollback()
			return Outcome{}, runErr
		}

		hooks.Finished(id, result)

		progID, ok := programRowIDs[id.Program.AbsolutePath]
		if !ok {
			progID, err = tx.PutTestProgram(actionID, id.Program.AbsolutePath, id.Program.SuiteName)
			if err != nil {
				tx.Rollback()
				return Outcome{}, err
			}
			programRowIDs[id.Program.AbsolutePath] = progID
		}

		caseRowID, err := tx.PutTestCase(progID, id.Name, userMetadataProperties(meta))
		if err != nil {
			tx.Rollback()
			return Outcome{}, err
		}

		if _, err := tx.PutResult(caseRowID, storeResultOf(result)); err != nil {
			tx.Rollback()
			return Outcome{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Outcome{}, err
	}

	log.Infof("run %s: action %d complete", runID, actionID)
	return Outcome{ActionID: actionID, UnusedFilters: sc.UnusedFilters(), RunID: runID}, nil
}

func environMap() map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}

func userMetadataProperties(meta *metadata.Metadata) map[string]string {
	if meta == nil {
		return nil
	}
	return meta.UserMetadata
}

func storeResultOf(result atf.TestResult) store.TestResult {
	var kind store.ResultKind
	switch result.Kind {
	case atf.KindPassed:
		kind = store.KindPassed
	case atf.KindFailed:
		kind = store.KindFailed
	case atf.KindSkipped:
		kind = store.KindSkipped
	case atf.KindExpectedFailure:
		kind = store.KindExpectedFailure
	default:
		kind = store.KindBroken
	}
	return store.TestResult{Kind: kind, Reason: result.Reason}
}
