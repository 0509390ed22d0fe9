package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ReportRecord represents a stored report row.
type ReportRecord struct {
	ID         int64
	RequestID  string
	UserID     int
	Type       string
	Version    int
	ReportedAt time.Time
	ReceivedAt time.Time
	RemoteAddr string
	Data       string
}

// ListFilter holds optional query parameters for listing reports.
type ListFilter struct {
	Type           string
	Version        int
	UserID         int
	ReceivedAfter  *time.Time
	ReceivedBefore *time.Time
	PageSize       int
	Page           int
}

// VersionCount is the number of reports received for one type and version.
type VersionCount struct {
	Type    string
	Version int
	Count   int
}

// Store provides CRUD operations for report records.
type Store struct {
	db *sql.DB
}

// New opens the SQLite database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a report and returns the new ID and received_at time.
func (s *Store) Insert(ctx context.Context, rec *ReportRecord) (int64, time.Time, error) {
	receivedAt := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (request_id, user_id, report_type, version, reported_at, received_at, remote_addr, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID,
		rec.UserID,
		rec.Type,
		rec.Version,
		rec.ReportedAt.UTC().Format(time.RFC3339),
		receivedAt.Format(time.RFC3339),
		rec.RemoteAddr,
		rec.Data,
	)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("get last insert id: %w", err)
	}

	return id, receivedAt, nil
}

// Get retrieves a report by ID.
func (s *Store) Get(ctx context.Context, id int64) (*ReportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request_id, user_id, report_type, version, reported_at, received_at, remote_addr, data
		 FROM reports WHERE id = ?`, id)

	return scanRecord(row)
}

// Delete removes a report by ID.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// List returns report summaries matching the given filter. Data is left
// empty; use Get for the full document.
func (s *Store) List(ctx context.Context, f ListFilter) ([]ReportRecord, int, error) {
	where, args := buildWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM reports" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := `SELECT id, request_id, user_id, report_type, version, reported_at, received_at, remote_addr, ''
		FROM reports` + where + ` ORDER BY received_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var records []ReportRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *rec)
	}

	return records, total, rows.Err()
}

// CountByVersion returns how many reports were received per type and version.
func (s *Store) CountByVersion(ctx context.Context) ([]VersionCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT report_type, version, COUNT(*) FROM reports
		 GROUP BY report_type, version ORDER BY report_type, version`)
	if err != nil {
		return nil, fmt.Errorf("count by version: %w", err)
	}
	defer rows.Close()

	var out []VersionCount
	for rows.Next() {
		var vc VersionCount
		if err := rows.Scan(&vc.Type, &vc.Version, &vc.Count); err != nil {
			return nil, err
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

// Purge deletes reports received longer ago than olderThan.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE received_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge reports: %w", err)
	}
	return result.RowsAffected()
}

func buildWhere(f ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if f.Type != "" {
		conditions = append(conditions, "report_type = ?")
		args = append(args, f.Type)
	}
	if f.Version > 0 {
		conditions = append(conditions, "version = ?")
		args = append(args, f.Version)
	}
	if f.UserID > 0 {
		conditions = append(conditions, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.ReceivedAfter != nil {
		conditions = append(conditions, "received_at >= ?")
		args = append(args, f.ReceivedAfter.UTC().Format(time.RFC3339))
	}
	if f.ReceivedBefore != nil {
		conditions = append(conditions, "received_at <= ?")
		args = append(args, f.ReceivedBefore.UTC().Format(time.RFC3339))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*ReportRecord, error) {
	var rec ReportRecord
	var reportedAt, receivedAt string
	err := row.Scan(&rec.ID, &rec.RequestID, &rec.UserID, &rec.Type, &rec.Version, &reportedAt, &receivedAt, &rec.RemoteAddr, &rec.Data)
	if err != nil {
		return nil, err
	}

	rec.ReportedAt, _ = time.Parse(time.RFC3339, reportedAt)
	rec.ReceivedAt, _ = time.Parse(time.RFC3339, receivedAt)

	return &rec, nil
}
