package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tangra/go-tangra-hwreport/internal/collector"
	"github.com/go-tangra/go-tangra-hwreport/internal/reporter"
	"github.com/go-tangra/go-tangra-hwreport/internal/sender"
	"github.com/go-tangra/go-tangra-hwreport/internal/store"
)

func newTestHandler(t *testing.T, clientSecret, apiSecret string) (*Handler, *store.Store) {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewHandler(db, clientSecret, apiSecret, 0), db
}

func uploadForm() url.Values {
	return url.Values{
		"user_id": {"3"},
		"time":    {"1700000000"},
		"type":    {"hwdetect"},
		"version": {"1"},
		"data":    {`{"os_linux":1,"ram_total":8192}`},
	}
}

func postForm(t *testing.T, h http.Handler, form url.Values, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/upload/v1/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUpload_Stores(t *testing.T) {
	h, db := newTestHandler(t, "", "")
	routes := h.Routes()

	rec := postForm(t, routes, uploadForm(), map[string]string{"X-Request-Id": "abc"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	reports, total, err := db.List(context.Background(), store.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "abc", reports[0].RequestID)
	assert.Equal(t, "hwdetect", reports[0].Type)
}

func TestUpload_InvalidAnswersBadRequestPage(t *testing.T) {
	h, _ := newTestHandler(t, "", "")
	form := uploadForm()
	form.Set("data", "{broken")

	rec := postForm(t, h.Routes(), form, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, sender.BadRequestBody, rec.Body.String())
}

func TestUpload_ClientSecret(t *testing.T) {
	h, _ := newTestHandler(t, "s3cret", "")
	routes := h.Routes()

	assert.Equal(t, http.StatusUnauthorized, postForm(t, routes, uploadForm(), nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		postForm(t, routes, uploadForm(), map[string]string{"X-Client-Secret": "wrong"}).Code)
	assert.Equal(t, http.StatusOK,
		postForm(t, routes, uploadForm(), map[string]string{"X-Client-Secret": "s3cret"}).Code)
}

func TestReadAPI(t *testing.T) {
	h, _ := newTestHandler(t, "", "key")
	routes := h.Routes()

	for range 2 {
		require.Equal(t, http.StatusOK, postForm(t, routes, uploadForm(), nil).Code)
	}

	get := func(path string, withKey bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if withKey {
			req.Header.Set("X-API-Key", "key")
		}
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, get("/v1/reports", false).Code)

	rec := get("/v1/reports?type=hwdetect&version=1&page_size=1", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.TotalCount)
	require.Len(t, list.Reports, 1)

	assert.Equal(t, http.StatusBadRequest, get("/v1/reports?version=x", true).Code)

	rec = get("/v1/reports/1", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var one struct {
		ID    int64           `json:"id"`
		Facts json.RawMessage `json:"facts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, int64(1), one.ID)
	assert.JSONEq(t, `{"os_linux":1,"ram_total":8192}`, string(one.Facts))

	assert.Equal(t, http.StatusNotFound, get("/v1/reports/99", true).Code)
	assert.Equal(t, http.StatusBadRequest, get("/v1/reports/abc", true).Code)

	rec = get("/v1/stats", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"versions":[{"type":"hwdetect","version":1,"count":2}]}`, rec.Body.String())

	del := httptest.NewRequest(http.MethodDelete, "/v1/reports/1", nil)
	del.Header.Set("X-API-Key", "key")
	drec := httptest.NewRecorder()
	routes.ServeHTTP(drec, del)
	assert.Equal(t, http.StatusNoContent, drec.Code)
	assert.Equal(t, http.StatusNotFound, get("/v1/reports/1", true).Code)
}

func TestEndToEndWithSender(t *testing.T) {
	h, db := newTestHandler(t, "", "")
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	c := sender.New()
	defer c.Close()

	res := <-c.Submit(&sender.Request{URL: srv.URL + "/upload/v1/", Params: uploadForm()})
	require.NoError(t, res.Err)
	assert.False(t, res.Failed())

	bad := uploadForm()
	bad.Del("type")
	res = <-c.Submit(&sender.Request{URL: srv.URL + "/upload/v1/", Params: bad})
	assert.True(t, res.Rejected())
	assert.True(t, res.Failed())

	_, total, err := db.List(context.Background(), store.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func runReporter(t *testing.T, uploadURL, secret string) (reporter.Status, *reporter.VersionState) {
	t.Helper()
	c := sender.New()
	defer c.Close()

	cfg := reporter.DefaultConfig(uploadURL)
	cfg.ClientSecret = secret
	state := reporter.NewVersionState(0)
	col := collector.New(collector.WithOS("linux"), collector.WithDisplay(collector.Display{Width: 1024, Height: 768}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := reporter.New(cfg, state, col, c).Run(ctx).Wait(ctx)
	require.NoError(t, err)
	return status, state
}

func TestReporterUploadsToSecuredCollector(t *testing.T) {
	h, db := newTestHandler(t, "s3cret", "")
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	status, state := runReporter(t, srv.URL+"/upload/v1/", "s3cret")
	assert.Equal(t, reporter.StatusSucceeded, status)
	assert.Equal(t, reporter.ReportVersion, state.LastReportedVersion())

	_, total, err := db.List(context.Background(), store.ListFilter{Type: reporter.ReportType})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	status, state = runReporter(t, srv.URL+"/upload/v1/", "")
	assert.Equal(t, reporter.StatusFailed, status)
	assert.Zero(t, state.LastReportedVersion())
}
