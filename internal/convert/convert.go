package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-tangra/go-tangra-hwreport/internal/store"
)

// ErrInvalidUpload is wrapped by every validation failure of an upload form.
var ErrInvalidUpload = errors.New("invalid upload")

// FormToRecord validates an upload form and converts it to a store record.
func FormToRecord(form url.Values) (*store.ReportRecord, error) {
	userID, err := positiveInt(form, "user_id")
	if err != nil {
		return nil, err
	}
	version, err := positiveInt(form, "version")
	if err != nil {
		return nil, err
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(form.Get("time")), 10, 64)
	if err != nil || ts < 0 {
		return nil, fmt.Errorf("%w: time must be seconds since epoch", ErrInvalidUpload)
	}

	typ := strings.TrimSpace(form.Get("type"))
	if typ == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidUpload)
	}

	data := form.Get("data")
	var doc map[string]any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: data is not a JSON object: %v", ErrInvalidUpload, err)
	}

	return &store.ReportRecord{
		UserID:     userID,
		Type:       typ,
		Version:    version,
		ReportedAt: time.Unix(ts, 0).UTC(),
		Data:       data,
	}, nil
}

func positiveInt(form url.Values, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(form.Get(key)))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidUpload, key)
	}
	return n, nil
}

// ReportSummary is the list view of a stored report.
type ReportSummary struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"request_id,omitempty"`
	UserID     int       `json:"user_id"`
	Type       string    `json:"type"`
	Version    int       `json:"version"`
	ReportedAt time.Time `json:"reported_at"`
	ReceivedAt time.Time `json:"received_at"`
}

// Report is a stored report including its facts document.
type Report struct {
	ReportSummary
	Facts json.RawMessage `json:"facts"`
}

// RecordToSummary converts a store record to its list view.
func RecordToSummary(rec *store.ReportRecord) ReportSummary {
	return ReportSummary{
		ID:         rec.ID,
		RequestID:  rec.RequestID,
		UserID:     rec.UserID,
		Type:       rec.Type,
		Version:    rec.Version,
		ReportedAt: rec.ReportedAt,
		ReceivedAt: rec.ReceivedAt,
	}
}

// RecordToReport converts a store record to the full report view.
func RecordToReport(rec *store.ReportRecord) (*Report, error) {
	if !json.Valid([]byte(rec.Data)) {
		return nil, fmt.Errorf("report %d: stored data is not valid JSON", rec.ID)
	}
	return &Report{
		ReportSummary: RecordToSummary(rec),
		Facts:         json.RawMessage(rec.Data),
	}, nil
}
