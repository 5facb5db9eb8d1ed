package store

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS keywords (
	slug TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	sources TEXT NOT NULL DEFAULT '["twitter"]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS contents (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	source_type TEXT NOT NULL,
	title TEXT NOT NULL,
	snippet TEXT NOT NULL,
	author_name TEXT,
	published_at TEXT,
	thumbnail_url TEXT,
	source_metadata JSONB,
	keyword TEXT NOT NULL,
	search_date TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS contents_created_at_idx ON contents (created_at DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS keywords (
	slug TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT 1,
	sources TEXT NOT NULL DEFAULT '["twitter"]',
	created_at DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS contents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	source_type TEXT NOT NULL,
	title TEXT NOT NULL,
	snippet TEXT NOT NULL,
	author_name TEXT,
	published_at TEXT,
	thumbnail_url TEXT,
	source_metadata TEXT,
	keyword TEXT NOT NULL,
	search_date TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	deleted_at DATETIME
)`,
	`CREATE INDEX IF NOT EXISTS contents_created_at_idx ON contents (created_at DESC)`,
}
