package connector

import (
	"context"

	"go.uber.org/zap"

	"github.com/vizydrop/github-data-link/pkg/insights"
	"github.com/vizydrop/github-data-link/pkg/retry"
)

// StreamErrorMarker is the in-band record that terminates a stream after a
// mid-stream failure. The response status is already committed as 200 by
// the time rows are flowing, so the failure travels inside the array.
type StreamErrorMarker struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Aggregator drives fetch-flatten-write across the resolved repositories,
// one repository at a time to keep the load on the upstream API bounded.
type Aggregator struct {
	api                 StatsAPI
	invoker             *retry.Invoker
	logger              *zap.SugaredLogger
	resolveDisplayNames bool
}

// NewAggregator returns an Aggregator. When resolveDisplayNames is set,
// contributor logins are enriched into profile display names via a
// per-request memoized lookup.
func NewAggregator(api StatsAPI, invoker *retry.Invoker, logger *zap.SugaredLogger, resolveDisplayNames bool) *Aggregator {
	return &Aggregator{
		api:                 api,
		invoker:             invoker,
		logger:              logger,
		resolveDisplayNames: resolveDisplayNames,
	}
}

// Run streams the flattened contributor stats of every repository to out,
// in repository order. A failed fetch stops further processing and writes
// a single StreamErrorMarker; a failed stream write (client gone) abandons
// the remaining work silently. Run never returns an error because at this
// point there is no boundary left to report one to.
func (a *Aggregator) Run(ctx context.Context, repos []insights.Repository, out *ArrayStream) {
	a.logger.Infof("Streaming contributor stats for %d repositories", len(repos))

	// The name cache is request-scoped on purpose: tokens differ between
	// requests and must not share lookup results.
	names := make(map[string]string)
	resolve := a.nameResolver(ctx, names)

	for _, repo := range repos {
		if ctx.Err() != nil {
			a.logger.Infof("Request canceled, abandoning %s/%s and the remaining repositories", repo.Owner, repo.Name)
			return
		}

		var stats []insights.ContributorStats
		err := a.invoker.Do(ctx, func(ctx context.Context) error {
			var err error
			stats, err = a.api.ContributorStats(ctx, repo.Owner, repo.Name)
			return err
		})
		if err != nil {
			a.logger.Errorf("Could not fetch contributor stats for %s/%s: %v", repo.Owner, repo.Name, err)
			marker := StreamErrorMarker{Message: err.Error(), Code: StatusCode(err)}
			if writeErr := out.Write(marker); writeErr != nil {
				a.logger.Warnf("Could not write error marker, client likely disconnected: %v", writeErr)
			}
			return
		}

		for _, entry := range stats {
			for _, row := range insights.Flatten(repo, entry, resolve) {
				if err := out.Write(row); err != nil {
					a.logger.Warnf("Stream write failed, abandoning remaining work: %v", err)
					return
				}
			}
		}
	}
}

// nameResolver returns the login→display-name mapping used while
// flattening. Lookups are memoized in the request-scoped cache; a failed
// profile fetch falls back to the raw login rather than failing the
// stream.
func (a *Aggregator) nameResolver(ctx context.Context, cache map[string]string) insights.NameResolver {
	if !a.resolveDisplayNames {
		return nil
	}

	return func(login string) string {
		if name, ok := cache[login]; ok {
			return name
		}

		name := login
		user, err := a.api.User(ctx, login)
		if err != nil {
			a.logger.Debugf("Could not resolve profile for %s, using login: %v", login, err)
		} else if user.Name != "" {
			name = user.Name
		}

		cache[login] = name
		return name
	}
}
