package jira

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"agile-analytics/internal/ticket"
)

const (
	defaultPageSize = 100
	defaultWorkers  = 4
)

// Fetcher pages through a JQL search and converts the issues into tickets.
type Fetcher struct {
	client   Client
	pageSize int
	workers  int
}

// NewFetcher wraps a client. Zero pageSize or workers fall back to defaults.
func NewFetcher(client Client, pageSize, workers int) *Fetcher {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Fetcher{client: client, pageSize: pageSize, workers: workers}
}

// FetchAll returns every issue matching jql, sorted by key.
// The first page is read alone to learn the total; the rest are fetched concurrently.
func (f *Fetcher) FetchAll(ctx context.Context, jql string) ([]ticket.AgileTicket, error) {
	first, err := f.client.SearchIssuesWithHistory(ctx, jql, 0, f.pageSize)
	if err != nil {
		return nil, err
	}

	issues := slices.Clone(first.Issues)
	log.Info().Int("total", first.Total).Int("pageSize", f.pageSize).Msg("Fetching issues from Jira")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	// Jira may cap maxResults below the requested page size; step by what it returned.
	step := len(first.Issues)
	for startAt := step; step > 0 && startAt < first.Total; startAt += step {
		g.Go(func() error {
			page, err := f.client.SearchIssuesWithHistory(gctx, jql, startAt, f.pageSize)
			if err != nil {
				return err
			}
			mu.Lock()
			issues = append(issues, page.Issues...)
			mu.Unlock()
			log.Debug().Int("startAt", startAt).Int("count", len(page.Issues)).Msg("Fetched page")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tickets := make([]ticket.AgileTicket, 0, len(issues))
	for _, dto := range issues {
		tickets = append(tickets, ConvertIssue(dto))
	}
	slices.SortFunc(tickets, func(a, b ticket.AgileTicket) int {
		return strings.Compare(a.Key, b.Key)
	})
	return tickets, nil
}
