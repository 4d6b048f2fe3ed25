package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agile-analytics/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	sheets []string
}

func (m *memorySink) Upsert(_ context.Context, sheet string, _ report.Report) (string, error) {
	m.sheets = append(m.sheets, sheet)
	return "run-42", nil
}

const weeklyBody = `{
  "title": "Weekly",
  "period": "weekly",
  "start_date": "2016-05-21",
  "end_date": "2016-06-21",
  "sheet": "Throughput",
  "tickets": [
    {"key": "A-1", "started": {"state": "In Progress", "entered_at": "2016-05-10T10:00:00Z"}, "ended": {"state": "Done", "entered_at": "2016-05-23T10:00:00Z"}},
    {"key": "A-2", "started": {"state": "In Progress", "entered_at": "2016-05-12T10:00:00Z"}, "ended": {}},
    {"key": "A-3", "ended": {"state": "Done", "entered_at": "2016-06-21T23:00:00Z"}}
  ]
}`

func newTestRouter(sink *memorySink) http.Handler {
	opts := Options{
		Version: "test",
		Now:     func() time.Time { return time.Date(2016, 6, 21, 12, 0, 0, 0, time.UTC) },
	}
	if sink != nil {
		opts.Sink = sink
	}
	return NewRouter(opts)
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/throughput", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestThroughput_OK(t *testing.T) {
	sink := &memorySink{}
	rec := post(t, newTestRouter(sink), weeklyBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ThroughputResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "2016-05-15", resp.Summary.StartDate.Format(report.DateLayout))
	assert.Equal(t, "2016-06-25", resp.Summary.EndDate.Format(report.DateLayout))
	assert.Len(t, resp.Table, 7)
	assert.Len(t, resp.Buckets, 6)
	assert.Equal(t, []string{"2016-06-19", "1"}, resp.Table[6])
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "run-42", resp.RunID)
	assert.Equal(t, []string{"Throughput"}, sink.sheets)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestThroughput_Errors(t *testing.T) {
	h := newTestRouter(nil)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{"period":`, http.StatusBadRequest, "INVALID_BODY"},
		{"unknown field", `{"period":"weekly","colour":"red"}`, http.StatusBadRequest, "INVALID_BODY"},
		{"unknown period", `{"period":"yearly","start_date":"2016-05-21","end_date":"2016-06-21"}`, http.StatusBadRequest, "INVALID_REPORT"},
		{"unset start", `{"period":"weekly","end_date":"2016-06-21"}`, http.StatusBadRequest, "INVALID_REPORT"},
		{"sheet without store", `{"period":"weekly","start_date":"2016-05-21","end_date":"2016-06-21","sheet":"S"}`, http.StatusBadRequest, "NO_SHEET_STORE"},
		{
			"end state without timestamp",
			`{"period":"weekly","start_date":"2016-05-21","end_date":"2016-06-21","tickets":[{"key":"A-1","ended":{"state":"Done"}}]}`,
			http.StatusUnprocessableEntity, "MALFORMED_TICKET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestHealthAndPeriods(t *testing.T) {
	h := newTestRouter(nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/periods", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["daily","weekly","monthly"]`, rec.Body.String())
}

func TestRequestID_Propagates(t *testing.T) {
	h := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per client")
}

func TestRateLimiter_Middleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	send := func(h http.Handler, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("forwarded headers ignored by default", func(t *testing.T) {
		rl := NewRateLimiter(0.001, 1, time.Minute)
		h := rl.Middleware(ok)

		assert.Equal(t, http.StatusNoContent, send(h, "192.0.2.7"))
		assert.Equal(t, http.StatusTooManyRequests, send(h, "192.0.2.8"), "a new header value must not reset the limit")
	})

	t.Run("forwarded headers used behind a trusted proxy", func(t *testing.T) {
		rl := NewRateLimiter(0.001, 1, time.Minute)
		rl.TrustProxy = true
		h := rl.Middleware(ok)

		assert.Equal(t, http.StatusNoContent, send(h, "192.0.2.7, 10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, send(h, "192.0.2.7"))
		assert.Equal(t, http.StatusNoContent, send(h, "192.0.2.8"))
	})
}

func TestCORS_Preflight(t *testing.T) {
	h := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reports/throughput", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
