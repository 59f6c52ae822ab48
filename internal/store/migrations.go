package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    generated_at DATETIME NOT NULL,
    keyword      TEXT NOT NULL DEFAULT '',
    item_count   INTEGER NOT NULL DEFAULT 0,
    highlights   TEXT NOT NULL DEFAULT '[]',
    report       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS run_items (
    run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    rank     INTEGER NOT NULL,
    source   TEXT NOT NULL,
    title    TEXT NOT NULL,
    url      TEXT NOT NULL DEFAULT '',
    heat     TEXT NOT NULL DEFAULT '',
    time     TEXT NOT NULL DEFAULT '',
    content  TEXT NOT NULL DEFAULT '',
    score    REAL NOT NULL DEFAULT 0,
    category TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_run_items_category ON run_items(category);
CREATE INDEX IF NOT EXISTS idx_run_items_score ON run_items(score);
`
