package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS intervals (
    year                 INTEGER NOT NULL,
    start_ms             INTEGER NOT NULL,
    end_ms               INTEGER NOT NULL,
    workspace            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS current_interval (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    start_ms             INTEGER NOT NULL,
    workspace            TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_intervals_year_start ON intervals(year, start_ms);
`
