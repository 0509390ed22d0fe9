package store

const createTableSQL = `
CREATE TABLE IF NOT EXISTS reports (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id      TEXT NOT NULL DEFAULT '',
    user_id         INTEGER NOT NULL,
    report_type     TEXT NOT NULL,
    version         INTEGER NOT NULL,
    reported_at     TEXT NOT NULL,
    received_at     TEXT NOT NULL,
    remote_addr     TEXT NOT NULL DEFAULT '',
    data            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_type_version ON reports(report_type, version);
CREATE INDEX IF NOT EXISTS idx_reports_received_at ON reports(received_at);
CREATE INDEX IF NOT EXISTS idx_reports_user_id ON reports(user_id);
`
