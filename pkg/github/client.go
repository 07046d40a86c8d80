// package github wraps the hosting API client used by the data link. It
// normalizes responses into the pipeline's data structures and classified
// errors, and logs one line per upstream call.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v54/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/vizydrop/github-data-link/pkg/connector"
	"github.com/vizydrop/github-data-link/pkg/insights"
)

// Client implements connector.API over the GitHub REST API.
type Client struct {
	client *github.Client
	logger *zap.SugaredLogger
}

// NewTokenClient returns a Client authenticated with the caller-supplied
// access token. The transport layers a static oauth2 token source over a
// secondary-rate-limit waiter so abuse-detection pauses are absorbed
// instead of surfacing as failures.
func NewTokenClient(token string, logger *zap.SugaredLogger) (*Client, error) {
	waiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("could not create rate limit waiter: %w", err)
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   waiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		},
	}

	return &Client{
		client: github.NewClient(httpClient),
		logger: logger,
	}, nil
}

// ViewerRepositories lists repositories affiliated with the token's
// identity using the configured affiliation semantics.
func (c *Client) ViewerRepositories(ctx context.Context, affiliation string) ([]insights.Repository, error) {
	opt := &github.RepositoryListOptions{
		Affiliation: affiliation,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var allRepos []insights.Repository
	for {
		repos, resp, err := c.client.Repositories.List(ctx, "", opt)
		c.logCall(resp, err)
		if err != nil {
			return nil, classify(err)
		}
		allRepos = append(allRepos, convertRepos(repos)...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return allRepos, nil
}

// OrganizationRepositories lists all repositories owned by an organization.
func (c *Client) OrganizationRepositories(ctx context.Context, org string) ([]insights.Repository, error) {
	opt := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var allRepos []insights.Repository
	for {
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, org, opt)
		c.logCall(resp, err)
		if err != nil {
			return nil, classify(err)
		}
		allRepos = append(allRepos, convertRepos(repos)...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return allRepos, nil
}

// OwnerRepositories lists all repositories owned by an arbitrary login.
func (c *Client) OwnerRepositories(ctx context.Context, owner string) ([]insights.Repository, error) {
	opt := &github.RepositoryListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var allRepos []insights.Repository
	for {
		repos, resp, err := c.client.Repositories.List(ctx, owner, opt)
		c.logCall(resp, err)
		if err != nil {
			return nil, classify(err)
		}
		allRepos = append(allRepos, convertRepos(repos)...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return allRepos, nil
}

// Repository fetches one repository's details.
func (c *Client) Repository(ctx context.Context, owner, name string) (insights.Repository, error) {
	repo, resp, err := c.client.Repositories.Get(ctx, owner, name)
	c.logCall(resp, err)
	if err != nil {
		return insights.Repository{}, classify(err)
	}
	return convertRepo(repo), nil
}

// Teams lists an organization's teams.
func (c *Client) Teams(ctx context.Context, org string) ([]insights.Team, error) {
	opt := &github.ListOptions{PerPage: 100}

	var allTeams []insights.Team
	for {
		teams, resp, err := c.client.Teams.ListTeams(ctx, org, opt)
		c.logCall(resp, err)
		if err != nil {
			return nil, classify(err)
		}
		for _, team := range teams {
			allTeams = append(allTeams, insights.Team{
				Name: team.GetName(),
				Slug: team.GetSlug(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return allTeams, nil
}

// TeamRepositories lists the repositories of a team identified by slug.
func (c *Client) TeamRepositories(ctx context.Context, org, slug string) ([]insights.Repository, error) {
	opt := &github.ListOptions{PerPage: 100}

	var allRepos []insights.Repository
	for {
		repos, resp, err := c.client.Teams.ListTeamReposBySlug(ctx, org, slug, opt)
		c.logCall(resp, err)
		if err != nil {
			return nil, classify(err)
		}
		allRepos = append(allRepos, convertRepos(repos)...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return allRepos, nil
}

// ContributorStats fetches per-contributor weekly stats for a repository.
// GitHub computes these asynchronously and answers 202 or 204 until the
// numbers are ready; both are a normal empty result, not a failure.
func (c *Client) ContributorStats(ctx context.Context, owner, repo string) ([]insights.ContributorStats, error) {
	stats, resp, err := c.client.Repositories.ListContributorsStats(ctx, owner, repo)
	c.logCall(resp, err)

	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		return nil, nil
	}
	if resp != nil && resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}

	var converted []insights.ContributorStats
	for _, entry := range stats {
		weeks := make([]insights.WeekStat, 0, len(entry.Weeks))
		for _, w := range entry.Weeks {
			weeks = append(weeks, insights.WeekStat{
				WeekStart: w.GetWeek().Time,
				Additions: w.GetAdditions(),
				Deletions: w.GetDeletions(),
				Commits:   w.GetCommits(),
			})
		}
		converted = append(converted, insights.ContributorStats{
			Login: entry.GetAuthor().GetLogin(),
			Weeks: weeks,
		})
	}
	return converted, nil
}

// User fetches a user profile by login.
func (c *Client) User(ctx context.Context, login string) (insights.User, error) {
	user, resp, err := c.client.Users.Get(ctx, login)
	c.logCall(resp, err)
	if err != nil {
		return insights.User{}, classify(err)
	}
	return insights.User{
		Login: user.GetLogin(),
		Name:  user.GetName(),
	}, nil
}

// logCall emits the observability line for one upstream call. It is a
// passive side effect and never changes the call's outcome.
func (c *Client) logCall(resp *github.Response, err error) {
	if resp == nil || resp.Response == nil || resp.Request == nil {
		if err != nil {
			c.logger.Warnf("GitHub call failed before a response was received: %v", err)
		}
		return
	}
	c.logger.Infof("%s %d %s %s", resp.Request.Method, resp.StatusCode, resp.Request.URL.String(), http.StatusText(resp.StatusCode))
}

// classify maps go-github failures onto the connector's error taxonomy.
// Responses with a status keep their code so the retry layer can stop on
// caller-input errors; transport failures stay unclassified and therefore
// retryable.
func classify(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		message := ghErr.Message
		if message == "" {
			message = http.StatusText(ghErr.Response.StatusCode)
		}
		return &connector.RemoteError{
			Code:    ghErr.Response.StatusCode,
			Message: message,
		}
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &connector.RemoteError{
			Code:    http.StatusForbidden,
			Message: rateErr.Message,
		}
	}

	return err
}

func convertRepos(repos []*github.Repository) []insights.Repository {
	converted := make([]insights.Repository, 0, len(repos))
	for _, repo := range repos {
		converted = append(converted, convertRepo(repo))
	}
	return converted
}

func convertRepo(repo *github.Repository) insights.Repository {
	return insights.Repository{
		Owner:     repo.GetOwner().GetLogin(),
		Name:      repo.GetName(),
		CreatedAt: repo.GetCreatedAt().Time,
		Language:  repo.GetLanguage(),
		SizeKB:    repo.GetSize(),
		Private:   repo.GetPrivate(),
	}
}
