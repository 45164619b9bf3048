package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS parks (
	id          TEXT PRIMARY KEY,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	location    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	map_url     TEXT NOT NULL DEFAULT '',
	lat         REAL,
	lng         REAL
);

CREATE TABLE IF NOT EXISTS tasks (
	park_id     TEXT NOT NULL REFERENCES parks(id) ON DELETE CASCADE,
	id          TEXT NOT NULL,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'OPEN'
		CHECK(status IN ('OPEN', 'IN_PROGRESS', 'COMPLETED')),
	volunteers  TEXT NOT NULL DEFAULT '[]',
	date        TEXT NOT NULL DEFAULT '',
	urgency     TEXT NOT NULL DEFAULT 'Medium'
		CHECK(urgency IN ('Low', 'Medium', 'High')),
	PRIMARY KEY (park_id, id)
);

CREATE INDEX IF NOT EXISTS idx_parks_position ON parks(position);
CREATE INDEX IF NOT EXISTS idx_tasks_park_position ON tasks(park_id, position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS ledger (
	id       TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	action   TEXT NOT NULL,
	points   INTEGER NOT NULL,
	date     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_position ON ledger(position);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
