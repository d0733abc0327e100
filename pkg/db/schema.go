package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- URLs table: normalized URL components, credentials masked
CREATE TABLE IF NOT EXISTS urls (
    url_id INTEGER PRIMARY KEY AUTOINCREMENT,
    original_url TEXT NOT NULL UNIQUE,
    canonical_url TEXT,
    scheme TEXT NOT NULL,
    domain TEXT NOT NULL,
    path TEXT,
    fragment TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_urls_domain ON urls(domain);
CREATE INDEX IF NOT EXISTS idx_urls_canonical ON urls(canonical_url);

CREATE TABLE IF NOT EXISTS url_query_params (
    param_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url_id INTEGER NOT NULL,
    key TEXT NOT NULL,
    value TEXT,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_params_url ON url_query_params(url_id);

-- URL accesses: every server-side fetch
CREATE TABLE IF NOT EXISTS url_accesses (
    access_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url_id INTEGER NOT NULL,
    accessed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    status_code INTEGER,
    error_type TEXT,
    success BOOLEAN NOT NULL,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_accesses_url ON url_accesses(url_id);
CREATE INDEX IF NOT EXISTS idx_accesses_time ON url_accesses(accessed_at);

-- Ingests: one row per arbitration, bypassed or not
CREATE TABLE IF NOT EXISTS ingests (
    ingest_id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL UNIQUE,
    url_id INTEGER NOT NULL,
    title TEXT,
    chosen TEXT NOT NULL,
    bypass_reason TEXT,
    score_extension REAL NOT NULL,
    score_server REAL NOT NULL,
    score_diff REAL NOT NULL DEFAULT 0,
    overlap REAL NOT NULL DEFAULT 0,
    blocker_penalty REAL NOT NULL DEFAULT 0,
    code_block_count INTEGER NOT NULL DEFAULT 0,
    language TEXT,
    top_keywords TEXT,            -- JSON array of "word:count"
    markdown_bytes INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ingests_url ON ingests(url_id);
CREATE INDEX IF NOT EXISTS idx_ingests_created ON ingests(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ingests_chosen ON ingests(chosen);
`
