package storage

// SQLiteSchema is the SQL schema for the SQLite backend. SQLite has no boolean
// type, so flags are stored as the text literals 'true' and 'false'.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS friends (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL CHECK(length(trim(name)) > 0),
    birthday             TEXT,
    notes                TEXT,
    ethnicity            TEXT,
    university           TEXT,
    concentration        TEXT,
    hometown             TEXT,
    relationship_context TEXT,
    phone                TEXT,
    email                TEXT,
    nickname             TEXT,
    current_city         TEXT,
    hidden               TEXT NOT NULL DEFAULT 'false'
                         CHECK(hidden IN ('true', 'false')),
    is_favorite          TEXT NOT NULL DEFAULT 'false'
                         CHECK(is_favorite IN ('true', 'false')),
    languages            TEXT,
    social_media         TEXT,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attributes (
    id          TEXT PRIMARY KEY,
    friend_id   TEXT NOT NULL REFERENCES friends(id) ON DELETE CASCADE,
    "key"       TEXT NOT NULL,
    value       TEXT,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL,
    UNIQUE(friend_id, "key")
);

CREATE TABLE IF NOT EXISTS notes (
    id          TEXT PRIMARY KEY,
    friend_id   TEXT NOT NULL REFERENCES friends(id) ON DELETE CASCADE,
    content     TEXT NOT NULL,
    category    TEXT,
    tags        TEXT,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_friends_created ON friends(created_at);
CREATE INDEX IF NOT EXISTS idx_attributes_key ON attributes("key");
CREATE INDEX IF NOT EXISTS idx_notes_friend ON notes(friend_id, created_at);
`

// MySQLSchema holds one statement per entry since the driver does not run
// multi-statement strings by default. Identifiers are double-quoted here and
// rewritten to backticks by the MySQL dialect.
var MySQLSchema = []string{
	`CREATE TABLE IF NOT EXISTS friends (
    id                   VARCHAR(36) PRIMARY KEY,
    name                 TEXT NOT NULL,
    birthday             TEXT NULL,
    notes                TEXT NULL,
    ethnicity            TEXT NULL,
    university           TEXT NULL,
    concentration        TEXT NULL,
    hometown             TEXT NULL,
    relationship_context TEXT NULL,
    phone                TEXT NULL,
    email                TEXT NULL,
    nickname             TEXT NULL,
    current_city         TEXT NULL,
    hidden               BOOLEAN NOT NULL DEFAULT FALSE,
    is_favorite          BOOLEAN NOT NULL DEFAULT FALSE,
    languages            TEXT NULL,
    social_media         TEXT NULL,
    created_at           VARCHAR(40) NOT NULL,
    updated_at           VARCHAR(40) NOT NULL,
    INDEX idx_friends_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS attributes (
    id          VARCHAR(36) PRIMARY KEY,
    friend_id   VARCHAR(36) NOT NULL,
    "key"       VARCHAR(255) NOT NULL,
    value       TEXT NULL,
    created_at  VARCHAR(40) NOT NULL,
    updated_at  VARCHAR(40) NOT NULL,
    UNIQUE KEY uq_attributes_friend_key (friend_id, "key"),
    INDEX idx_attributes_key ("key"),
    CONSTRAINT fk_attributes_friend FOREIGN KEY (friend_id) REFERENCES friends(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS notes (
    id          VARCHAR(36) PRIMARY KEY,
    friend_id   VARCHAR(36) NOT NULL,
    content     TEXT NOT NULL,
    category    TEXT NULL,
    tags        TEXT NULL,
    created_at  VARCHAR(40) NOT NULL,
    updated_at  VARCHAR(40) NOT NULL,
    INDEX idx_notes_friend (friend_id, created_at),
    CONSTRAINT fk_notes_friend FOREIGN KEY (friend_id) REFERENCES friends(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
