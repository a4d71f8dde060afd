package store

// Schema is the DDL of the scrapeking database.
const Schema = `
-- One row per pipeline stage invocation.
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'running',
    error       TEXT NOT NULL DEFAULT '',
    started_at  INTEGER NOT NULL,
    finished_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

-- Harvested detail pages; record holds the full site.PageRecord JSON.
CREATE TABLE IF NOT EXISTS pages (
    id           TEXT PRIMARY KEY,
    run_id       TEXT NOT NULL,
    url          TEXT NOT NULL,
    x            TEXT NOT NULL,
    y            TEXT NOT NULL,
    cards        INTEGER NOT NULL DEFAULT 0,
    nodes        INTEGER NOT NULL DEFAULT 0,
    failed_nodes INTEGER NOT NULL DEFAULT 0,
    record       TEXT NOT NULL,
    harvested_at INTEGER NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
CREATE INDEX IF NOT EXISTS idx_pages_xy ON pages(x, y);

-- Term lists produced by the text stages.
CREATE TABLE IF NOT EXISTS terms (
    run_id TEXT NOT NULL,
    kind   TEXT NOT NULL,
    term   TEXT NOT NULL,
    PRIMARY KEY (run_id, kind, term),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
