package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/go-tangra/go-tangra-hwreport/internal/convert"
	"github.com/go-tangra/go-tangra-hwreport/internal/logging"
	"github.com/go-tangra/go-tangra-hwreport/internal/sender"
	"github.com/go-tangra/go-tangra-hwreport/internal/store"
)

const defaultMaxBodyBytes = 1 << 20

// Handler serves the report upload endpoint and the read API.
type Handler struct {
	store        *store.Store
	log          *log.Logger
	clientSecret string
	apiSecret    string
	maxBodyBytes int64
}

// NewHandler creates a new handler backed by the given store. Empty secrets
// disable the corresponding check.
func NewHandler(s *store.Store, clientSecret, apiSecret string, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		store:        s,
		log:          logging.Get("server"),
		clientSecret: clientSecret,
		apiSecret:    apiSecret,
		maxBodyBytes: maxBodyBytes,
	}
}

// Routes returns the HTTP routes of the collector.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /upload/v1/", RequireSecret("X-Client-Secret", h.clientSecret, http.HandlerFunc(h.Upload)))
	mux.Handle("GET /v1/reports", RequireSecret("X-API-Key", h.apiSecret, http.HandlerFunc(h.ListReports)))
	mux.Handle("GET /v1/reports/{id}", RequireSecret("X-API-Key", h.apiSecret, http.HandlerFunc(h.GetReport)))
	mux.Handle("DELETE /v1/reports/{id}", RequireSecret("X-API-Key", h.apiSecret, http.HandlerFunc(h.DeleteReport)))
	mux.Handle("GET /v1/stats", RequireSecret("X-API-Key", h.apiSecret, http.HandlerFunc(h.Stats)))
	return mux
}

// Upload accepts a form-encoded hardware report. Invalid input is answered
// with the error page reporters look for.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.log.Warn("unreadable upload", "remote", r.RemoteAddr, "err", err)
		badRequest(w)
		return
	}

	rec, err := convert.FormToRecord(r.PostForm)
	if err != nil {
		h.log.Warn("rejected upload", "remote", r.RemoteAddr, "err", err)
		badRequest(w)
		return
	}
	rec.RequestID = r.Header.Get("X-Request-Id")
	rec.RemoteAddr = r.RemoteAddr

	id, _, err := h.store.Insert(r.Context(), rec)
	if err != nil {
		h.log.Error("store report", "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.log.Info("report stored",
		"id", id,
		"type", rec.Type,
		"version", rec.Version,
		"size", humanize.Bytes(uint64(len(rec.Data))),
		"request_id", rec.RequestID,
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}

type listResponse struct {
	Reports    []convert.ReportSummary `json:"reports"`
	TotalCount int                     `json:"total_count"`
}

// ListReports returns report summaries filtered by query parameters.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListFilter{Type: q.Get("type")}

	var err error
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"version", &filter.Version},
		{"user_id", &filter.UserID},
		{"page", &filter.Page},
		{"page_size", &filter.PageSize},
	} {
		if v := q.Get(p.name); v != "" {
			if *p.dst, err = strconv.Atoi(v); err != nil {
				writeError(w, http.StatusBadRequest, p.name+" must be an integer")
				return
			}
		}
	}

	records, total, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.log.Error("list reports", "err", err)
		writeError(w, http.StatusInternalServerError, "list reports failed")
		return
	}

	resp := listResponse{Reports: make([]convert.ReportSummary, len(records)), TotalCount: total}
	for i := range records {
		resp.Reports[i] = convert.RecordToSummary(&records[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetReport returns one report including its facts.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		h.log.Error("get report", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "get report failed")
		return
	}

	rep, err := convert.RecordToReport(rec)
	if err != nil {
		h.log.Error("decode report", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "decode report failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// DeleteReport removes one report.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		h.log.Error("delete report", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "delete report failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type versionCount struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Count   int    `json:"count"`
}

// Stats returns report counts per type and version.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountByVersion(r.Context())
	if err != nil {
		h.log.Error("count reports", "err", err)
		writeError(w, http.StatusInternalServerError, "count reports failed")
		return
	}

	out := make([]versionCount, len(counts))
	for i, c := range counts {
		out[i] = versionCount{Type: c.Type, Version: c.Version, Count: c.Count}
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": out})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}

func badRequest(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = io.WriteString(w, sender.BadRequestBody)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
