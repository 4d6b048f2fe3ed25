package jira

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnauthorized is returned when Jira rejects the configured credentials.
	ErrUnauthorized = errors.New("Jira authentication failed (401/403)")
	// ErrRateLimited is returned when Jira answers 429.
	ErrRateLimited = errors.New("Jira rate limit exceeded (429)")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("Jira resource not found")
	// ErrNoBaseURL is returned when no JIRA_URL was configured.
	ErrNoBaseURL = errors.New("Jira base URL is not configured")
)

// Client is the interface for interacting with Jira.
type Client interface {
	SearchIssuesWithHistory(ctx context.Context, jql string, startAt int, maxResults int) (*SearchResponse, error)
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string

	// Personal Access Token, preferred over cookies when set
	Token string

	// Data Center Cookies
	XsrfToken  string
	SessionID  string
	RememberMe string

	// Load Balancer Cookies
	GCILB string
	GCLB  string

	// Performance Settings
	RequestsPerSecond float64
	PageSize          int
	Workers           int
	CacheTTL          time.Duration
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewDataCenterClient(cfg)
}
