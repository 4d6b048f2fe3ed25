package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, total int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/rest/api/2/search" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("expand") != "changelog" {
			t.Errorf("Expected changelog expansion, got %q", r.URL.Query().Get("expand"))
		}

		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))

		resp := SearchResponse{StartAt: startAt, MaxResults: maxResults, Total: total}
		for i := startAt; i < total && i < startAt+maxResults; i++ {
			dto := IssueDTO{Key: fmt.Sprintf("PROJ-%03d", i)}
			dto.Fields.Status.Name = "Open"
			dto.Fields.Created = "2016-05-10T09:00:00.000+0000"
			resp.Issues = append(resp.Issues, dto)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestSearchIssuesWithHistory_Cached(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, 3, &hits)
	defer srv.Close()

	c := NewDataCenterClient(Config{BaseURL: srv.URL, Token: "secret", RequestsPerSecond: 1000})

	for i := 0; i < 2; i++ {
		res, err := c.SearchIssuesWithHistory(context.Background(), "project = PROJ", 0, 10)
		if err != nil {
			t.Fatalf("SearchIssuesWithHistory: %v", err)
		}
		if res.Total != 3 || len(res.Issues) != 3 {
			t.Fatalf("Expected 3 issues, got total=%d len=%d", res.Total, len(res.Issues))
		}
	}
	if hits.Load() != 1 {
		t.Errorf("Expected the second search to be served from cache, got %d requests", hits.Load())
	}
}

func TestSearchIssuesWithHistory_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusNotFound, ErrNotFound},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tt.status == http.StatusTooManyRequests {
				w.Header().Set("Retry-After", "30")
			}
			w.WriteHeader(tt.status)
		}))

		c := NewDataCenterClient(Config{BaseURL: srv.URL, RequestsPerSecond: 1000})
		_, err := c.SearchIssuesWithHistory(context.Background(), "project = PROJ", 0, 10)
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
		srv.Close()
	}
}

func TestSearchIssuesWithHistory_CookieAuth(t *testing.T) {
	var cookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie = r.Header.Get("Cookie")
		_ = json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	c := NewDataCenterClient(Config{BaseURL: srv.URL, SessionID: "abc", GCLB: `"quoted"`, RequestsPerSecond: 1000})
	if _, err := c.SearchIssuesWithHistory(context.Background(), "x", 0, 1); err != nil {
		t.Fatalf("SearchIssuesWithHistory: %v", err)
	}
	if want := `JSESSIONID=abc; GCLB="quoted"`; cookie != want {
		t.Errorf("Cookie = %q, want %q", cookie, want)
	}
}

func TestSearchIssuesWithHistory_NoBaseURL(t *testing.T) {
	c := NewDataCenterClient(Config{})
	if _, err := c.SearchIssuesWithHistory(context.Background(), "x", 0, 1); !errors.Is(err, ErrNoBaseURL) {
		t.Errorf("Expected ErrNoBaseURL, got %v", err)
	}
}

func TestFetcher_FetchAll(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, 25, &hits)
	defer srv.Close()

	c := NewDataCenterClient(Config{BaseURL: srv.URL, Token: "secret", RequestsPerSecond: 1000})
	tickets, err := NewFetcher(c, 10, 3).FetchAll(context.Background(), "project = PROJ")
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if len(tickets) != 25 {
		t.Fatalf("Expected 25 tickets, got %d", len(tickets))
	}
	if hits.Load() != 3 {
		t.Errorf("Expected 3 page requests, got %d", hits.Load())
	}
	for i, tk := range tickets {
		if want := fmt.Sprintf("PROJ-%03d", i); tk.Key != want {
			t.Errorf("tickets[%d] = %s, want %s", i, tk.Key, want)
		}
	}
}

func TestFetcher_FetchAll_PropagatesErrors(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, 5, &hits)
	defer srv.Close()

	c := NewDataCenterClient(Config{BaseURL: srv.URL, Token: "wrong", RequestsPerSecond: 1000})
	if _, err := NewFetcher(c, 2, 2).FetchAll(context.Background(), "x"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}
