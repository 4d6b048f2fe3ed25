package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const searchFields = "summary,issuetype,status,created,updated"

type dcClient struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter

	// Session Cache
	cache      map[string]*cacheEntry
	cacheMutex sync.Mutex
}

type cacheEntry struct {
	Value       *SearchResponse
	Expiration  time.Time
	AccessCount int
	OriginalTTL time.Duration
}

// NewDataCenterClient builds a client for Jira Data Center / Server REST v2.
func NewDataCenterClient(cfg Config) Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &dcClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cache:   make(map[string]*cacheEntry),
	}
}

func (c *dcClient) getFromCache(key string) (*SearchResponse, bool) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}

	if time.Now().After(entry.Expiration) {
		delete(c.cache, key)
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")

	// Sliding window extension
	if entry.AccessCount < 6 {
		entry.Expiration = time.Now().Add(entry.OriginalTTL)
		entry.AccessCount++
		log.Trace().Str("key", key).Int("count", entry.AccessCount).Msg("Extended cache TTL")
	}

	return entry.Value, true
}

func (c *dcClient) addToCache(key string, value *SearchResponse, ttl time.Duration) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &cacheEntry{
		Value:       value,
		Expiration:  time.Now().Add(ttl),
		OriginalTTL: ttl,
		AccessCount: 1,
	}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to cache")
}

func (c *dcClient) authenticateRequest(req *http.Request) {
	// 1. Prioritize Personal Access Token (PAT)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
		return
	}

	// 2. Fallback to session cookies
	cookies := []struct {
		name  string
		value string
	}{
		{"atlassian.xsrf.token", c.cfg.XsrfToken},
		{"JSESSIONID", c.cfg.SessionID},
		{"seraph.rememberme.cookie", c.cfg.RememberMe},
		{"GCILB", c.cfg.GCILB},
		{"GCLB", c.cfg.GCLB},
	}

	var cookiePairs []string
	for _, cookie := range cookies {
		if cookie.value != "" {
			// Built by hand: net/http's RFC 6265 validation drops GCLB values containing quotes.
			cookiePairs = append(cookiePairs, fmt.Sprintf("%s=%s", cookie.name, cookie.value))
		}
	}

	if len(cookiePairs) > 0 {
		req.Header.Set("Cookie", strings.Join(cookiePairs, "; "))
	}
}

func (c *dcClient) SearchIssuesWithHistory(ctx context.Context, jql string, startAt int, maxResults int) (*SearchResponse, error) {
	if c.cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	cacheKey := fmt.Sprintf("search:%s:%d:%d", jql, startAt, maxResults)
	if val, ok := c.getFromCache(cacheKey); ok {
		return val, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("fields", searchFields)
	params.Set("expand", "changelog")

	searchURL := fmt.Sprintf("%s/rest/api/2/search?%s", strings.TrimRight(c.cfg.BaseURL, "/"), params.Encode())
	log.Debug().Str("url", searchURL).Str("jql", jql).Int("startAt", startAt).Msg("Requesting issues from Jira")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.authenticateRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: please check your token or session cookies", ErrUnauthorized)
		case http.StatusTooManyRequests:
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				return nil, fmt.Errorf("%w: retry after %s seconds", ErrRateLimited, retryAfter)
			}
			return nil, ErrRateLimited
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: search endpoint", ErrNotFound)
		default:
			return nil, fmt.Errorf("Jira API returned status %d. Please check Jira availability", resp.StatusCode)
		}
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode Jira response: %w", err)
	}

	c.addToCache(cacheKey, &result, c.cfg.CacheTTL)

	return &result, nil
}
