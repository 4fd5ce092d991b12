package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create conversation turns",
		SQL: `
			CREATE TABLE turns (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				username    TEXT NOT NULL,
				token       TEXT NOT NULL,
				role        TEXT NOT NULL,
				author      TEXT NOT NULL DEFAULT '',
				content     TEXT NOT NULL,
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_turns_conversation ON turns (username, token, id);
		`,
	},
	{
		Version: 2,
		Name:    "create task bot registry",
		SQL: `
			CREATE TABLE task_bots (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				token         TEXT NOT NULL UNIQUE,
				title         TEXT NOT NULL,
				board_id      INTEGER NOT NULL,
				stack_id      INTEGER NOT NULL,
				card_id       INTEGER NOT NULL,
				status        TEXT NOT NULL DEFAULT 'active',
				created_at    TEXT NOT NULL,
				completed_at  TEXT
			);

			CREATE INDEX idx_task_bots_status ON task_bots (status);
		`,
	},
	{
		Version: 3,
		Name:    "create key facts",
		SQL: `
			CREATE TABLE key_facts (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				username    TEXT NOT NULL,
				token       TEXT NOT NULL,
				fact        TEXT NOT NULL,
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_key_facts_conversation ON key_facts (username, token, id);
		`,
	},
}
