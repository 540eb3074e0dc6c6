package store

// schemaSQL is portable between SQLite and PostgreSQL.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id                   TEXT PRIMARY KEY,
    source_path          TEXT NOT NULL DEFAULT '',
    character_name       TEXT NOT NULL DEFAULT '',
    strategy             TEXT NOT NULL,
    start_time           TEXT NOT NULL,
    end_time             TEXT NOT NULL,
    duration_minutes     BIGINT NOT NULL DEFAULT 0,
    raw_xp_gain          BIGINT NOT NULL DEFAULT 0,
    total_xp_gain        BIGINT NOT NULL DEFAULT 0,
    raw_xp_per_hour      BIGINT NOT NULL DEFAULT 0,
    total_xp_per_hour    BIGINT NOT NULL DEFAULT 0,
    loot_value           BIGINT NOT NULL DEFAULT 0,
    supplies_value       BIGINT NOT NULL DEFAULT 0,
    balance              BIGINT NOT NULL DEFAULT 0,
    damage_dealt         BIGINT NOT NULL DEFAULT 0,
    damage_per_hour      BIGINT NOT NULL DEFAULT 0,
    healing_done         BIGINT NOT NULL DEFAULT 0,
    healing_per_hour     BIGINT NOT NULL DEFAULT 0,
    imported_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session_monsters (
    session_id           TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    amount               BIGINT NOT NULL,
    PRIMARY KEY (session_id, seq)
);

CREATE TABLE IF NOT EXISTS session_items (
    session_id           TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    amount               BIGINT NOT NULL,
    gold_value           BIGINT,
    PRIMARY KEY (session_id, seq)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             BIGINT NOT NULL,
    size_bytes           BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_time);
CREATE INDEX IF NOT EXISTS idx_sessions_source ON sessions(source_path);
CREATE INDEX IF NOT EXISTS idx_monsters_name ON session_monsters(name);
`
