package store

const schema = `
CREATE TABLE IF NOT EXISTS contexts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cwd TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS context_env (
	context_id INTEGER NOT NULL REFERENCES contexts(id),
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (context_id, name)
);

CREATE TABLE IF NOT EXISTS actions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	context_id INTEGER NOT NULL REFERENCES contexts(id),
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS test_programs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	action_id INTEGER NOT NULL REFERENCES actions(id),
	absolute_path TEXT NOT NULL,
	suite_name TEXT NOT NULL,
	UNIQUE (action_id, absolute_path)
);

CREATE TABLE IF NOT EXISTS test_cases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	test_program_id INTEGER NOT NULL REFERENCES test_programs(id),
	name TEXT NOT NULL,
	UNIQUE (test_program_id, name)
);

CREATE TABLE IF NOT EXISTS test_case_metadata (
	test_case_id INTEGER NOT NULL REFERENCES test_cases(id),
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (test_case_id, name)
);

CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	test_case_id INTEGER NOT NULL REFERENCES test_cases(id),
	kind TEXT NOT NULL,
	reason TEXT,
	recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_results_test_case ON results(test_case_id);
`
