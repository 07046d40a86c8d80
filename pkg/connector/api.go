package connector

import (
	"context"

	"github.com/vizydrop/github-data-link/pkg/insights"
)

// RepositoryAPI is the slice of the hosting API the resolver needs.
type RepositoryAPI interface {
	// ViewerRepositories lists repositories affiliated with the token's
	// identity. The affiliation string is passed through to the upstream
	// list call, e.g. "organization_member" or "collaborator".
	ViewerRepositories(ctx context.Context, affiliation string) ([]insights.Repository, error)

	// OrganizationRepositories lists all repositories of an organization.
	OrganizationRepositories(ctx context.Context, org string) ([]insights.Repository, error)

	// OwnerRepositories lists all repositories of an arbitrary owner login.
	OwnerRepositories(ctx context.Context, owner string) ([]insights.Repository, error)

	// Repository fetches a single repository's details.
	Repository(ctx context.Context, owner, name string) (insights.Repository, error)

	// Teams lists an organization's teams.
	Teams(ctx context.Context, org string) ([]insights.Team, error)

	// TeamRepositories lists the repositories of a team identified by slug.
	TeamRepositories(ctx context.Context, org, slug string) ([]insights.Repository, error)
}

// StatsAPI is the slice of the hosting API the aggregator needs.
type StatsAPI interface {
	// ContributorStats returns per-contributor weekly stats for one
	// repository. An empty slice is a normal outcome: the upstream
	// computes stats asynchronously and answers 202/204 until ready.
	ContributorStats(ctx context.Context, owner, repo string) ([]insights.ContributorStats, error)

	// User fetches a user profile, used for display name enrichment.
	User(ctx context.Context, login string) (insights.User, error)
}

// API is the full hosting API surface consumed by the pipeline.
type API interface {
	RepositoryAPI
	StatsAPI
}
