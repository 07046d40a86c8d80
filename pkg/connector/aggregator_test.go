package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vizydrop/github-data-link/pkg/insights"
)

func week(day int, commits int) insights.WeekStat {
	return insights.WeekStat{
		WeekStart: time.Date(2017, time.May, day, 0, 0, 0, 0, time.UTC),
		Additions: commits * 10,
		Deletions: commits,
		Commits:   commits,
	}
}

func decodeStream(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records), "stream must be a well-formed JSON array: %s", buf.String())
	return records
}

func TestRunStreamsRowsInRepositoryOrder(t *testing.T) {
	t.Parallel()

	repos := []insights.Repository{
		{Owner: "vizydrop", Name: "first"},
		{Owner: "vizydrop", Name: "second"},
	}

	api := &fakeAPI{
		contribStats: func(ctx context.Context, owner, repo string) ([]insights.ContributorStats, error) {
			return []insights.ContributorStats{
				{Login: "octocat", Weeks: []insights.WeekStat{week(7, 1), week(14, 0), week(21, 2)}},
			}, nil
		},
	}

	var buf bytes.Buffer
	out := NewArrayStream(&buf)
	NewAggregator(api, quickInvoker(), zap.NewNop().Sugar(), false).Run(context.Background(), repos, out)
	require.NoError(t, out.Close())

	records := decodeStream(t, &buf)
	require.Len(t, records, 4, "two non-zero weeks per repository")
	assert.Equal(t, "first", records[0]["Repository Name"])
	assert.Equal(t, "first", records[1]["Repository Name"])
	assert.Equal(t, "second", records[2]["Repository Name"])
	assert.Equal(t, "second", records[3]["Repository Name"])
	assert.Equal(t, "octocat", records[0]["Member"])
}

func TestRunWithNoRepositoriesYieldsEmptyArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out := NewArrayStream(&buf)
	NewAggregator(&fakeAPI{}, quickInvoker(), zap.NewNop().Sugar(), false).Run(context.Background(), nil, out)
	require.NoError(t, out.Close())

	assert.Equal(t, "[]", buf.String())
}

func TestRunPendingStatsContributeNoRows(t *testing.T) {
	t.Parallel()

	repos := []insights.Repository{
		{Owner: "vizydrop", Name: "pending"},
		{Owner: "vizydrop", Name: "ready"},
	}

	api := &fakeAPI{
		contribStats: func(ctx context.Context, owner, repo string) ([]insights.ContributorStats, error) {
			if repo == "pending" {
				// Upstream still computing: empty, non-error.
				return nil, nil
			}
			return []insights.ContributorStats{
				{Login: "octocat", Weeks: []insights.WeekStat{week(7, 1)}},
			}, nil
		},
	}

	var buf bytes.Buffer
	out := NewArrayStream(&buf)
	NewAggregator(api, quickInvoker(), zap.NewNop().Sugar(), false).Run(context.Background(), repos, out)
	require.NoError(t, out.Close())

	records := decodeStream(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "ready", records[0]["Repository Name"])
}

func TestRunMidStreamFailureWritesMarkerAndStops(t *testing.T) {
	t.Parallel()

	repos := []insights.Repository{
		{Owner: "vizydrop", Name: "good"},
		{Owner: "vizydrop", Name: "gone"},
		{Owner: "vizydrop", Name: "never-reached"},
	}

	fetched := []string{}
	api := &fakeAPI{
		contribStats: func(ctx context.Context, owner, repo string) ([]insights.ContributorStats, error) {
			fetched = append(fetched, repo)
			if repo == "gone" {
				return nil, &RemoteError{Code: http.StatusNotFound, Message: "Not Found"}
			}
			return []insights.ContributorStats{
				{Login: "octocat", Weeks: []insights.WeekStat{week(7, 1)}},
			}, nil
		},
	}

	var buf bytes.Buffer
	out := NewArrayStream(&buf)
	NewAggregator(api, quickInvoker(), zap.NewNop().Sugar(), false).Run(context.Background(), repos, out)
	require.NoError(t, out.Close())

	assert.Equal(t, []string{"good", "gone"}, fetched, "repositories after the failure must not be fetched")

	records := decodeStream(t, &buf)
	require.Len(t, records, 2, "partial rows plus one marker")
	assert.Equal(t, "good", records[0]["Repository Name"])
	assert.Equal(t, float64(http.StatusNotFound), records[1]["code"])
	assert.NotEmpty(t, records[1]["message"])
}

func TestRunUnattributedContributorUsesSentinel(t *testing.T) {
	t.Parallel()

	repos := []insights.Repository{{Owner: "vizydrop", Name: "data-link"}}
	api := &fakeAPI{
		contribStats: func(ctx context.Context, owner, repo string) ([]insights.ContributorStats, error) {
			return []insights.ContributorStats{
				{Weeks: []insights.WeekStat{week(7, 1)}},
			}, nil
		},
	}

	var buf bytes.Buffer
	out := NewArrayStream(&buf)
	NewAggregator(api, quickInvoker(), zap.NewNop().Sugar(), true).Run(context.Background(), repos, out)
	require.NoError(t, out.Close())

	records := decodeStream(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, insights.UnknownMember, records[0]["Member"])
}

func TestRunMemoizesDisplayNameLookups(t *testing.T) {
	t.Parallel()

	repos := []insights.Repository{
		{Owner: "vizydrop", Name: "first"},
		{Owner: "vizydrop", Name: "second"},
	}

	lookups := 0
	api := &fakeAPI{
		contribStats: func(ctx context.Context, owner, repo string) ([]insights.ContributorStats, error) {
			return []insights.ContributorStats{
				{Login: "octocat", Weeks: []insights.WeekStat{week(7, 1)}},
			}, nil
		},
		user: func(ctx context.Context, login string) (insights.User, error) {
			lookups++
			return insights.User{Login: login, Name: "The Octocat"}, nil
		},
	}

	var buf bytes.Buffer
	out := NewArrayStream(&buf)
	NewAggregator(api, quickInvoker(), zap.NewNop().Sugar(), true).Run(context.Background(), repos, out)
	require.NoError(t, out.Close())

	assert.Equal(t, 1, lookups, "one profile lookup per unique login per request")

	records := decodeStream(t, &buf)
	require.Len(t, records, 2)
	assert.Equal(t, "The Octocat", records[0]["Member"])
	assert.Equal(t, "The Octocat", records[1]["Member"])
}

func TestRunCanceledContextAbandonsRemainingRepositories(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	repos := []insights.Repository{
		{Owner: "vizydrop", Name: "first"},
		{Owner: "vizydrop", Name: "second"},
	}

	fetched := 0
	api := &fakeAPI{
		contribStats: func(ctx context.Context, owner, repo string) ([]insights.ContributorStats, error) {
			fetched++
			cancel()
			return []insights.ContributorStats{
				{Login: "octocat", Weeks: []insights.WeekStat{week(7, 1)}},
			}, nil
		},
	}

	var buf bytes.Buffer
	out := NewArrayStream(&buf)
	NewAggregator(api, quickInvoker(), zap.NewNop().Sugar(), false).Run(ctx, repos, out)
	require.NoError(t, out.Close())

	assert.Equal(t, 1, fetched, "no further remote calls after cancellation")
}
