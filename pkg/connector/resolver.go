package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/vizydrop/github-data-link/pkg/insights"
	"github.com/vizydrop/github-data-link/pkg/retry"
)

// Resolver turns a Selector into the ordered repository set it targets.
// Every upstream call is routed through the retry invoker; repositories
// keep the order the upstream returned them in.
type Resolver struct {
	api         RepositoryAPI
	invoker     *retry.Invoker
	affiliation string
}

// NewResolver returns a Resolver using the provided API, invoker and
// affiliation policy for the logged-in-user selector.
func NewResolver(api RepositoryAPI, invoker *retry.Invoker, affiliation string) *Resolver {
	return &Resolver{
		api:         api,
		invoker:     invoker,
		affiliation: affiliation,
	}
}

// Resolve produces the repository descriptors the selector targets.
// Unknown organizations, owners and repositories surface the upstream 404;
// an unmatched team raises a NotFoundError naming team and organization.
func (r *Resolver) Resolve(ctx context.Context, sel Selector) ([]insights.Repository, error) {
	switch sel.Kind {
	case SelectLoggedInUser:
		return r.listRepos(ctx, func(ctx context.Context) ([]insights.Repository, error) {
			return r.api.ViewerRepositories(ctx, r.affiliation)
		})
	case SelectOrganization:
		return r.listRepos(ctx, func(ctx context.Context) ([]insights.Repository, error) {
			return r.api.OrganizationRepositories(ctx, sel.Organization)
		})
	case SelectOwner:
		return r.listRepos(ctx, func(ctx context.Context) ([]insights.Repository, error) {
			return r.api.OwnerRepositories(ctx, sel.Owner)
		})
	case SelectOwnerRepo:
		var repo insights.Repository
		err := r.invoker.Do(ctx, func(ctx context.Context) error {
			var err error
			repo, err = r.api.Repository(ctx, sel.Owner, sel.Repository)
			return err
		})
		if err != nil {
			return nil, err
		}
		return []insights.Repository{repo}, nil
	case SelectTeam:
		return r.resolveTeam(ctx, sel.Organization, sel.Team)
	}

	return nil, fmt.Errorf("unsupported selector kind: %d", sel.Kind)
}

func (r *Resolver) listRepos(ctx context.Context, list func(ctx context.Context) ([]insights.Repository, error)) ([]insights.Repository, error) {
	var repos []insights.Repository
	err := r.invoker.Do(ctx, func(ctx context.Context) error {
		var err error
		repos, err = list(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return repos, nil
}

// resolveTeam matches the requested team against the organization's teams
// by display name or slug, case-insensitively, then lists the matched
// team's repositories.
func (r *Resolver) resolveTeam(ctx context.Context, org, team string) ([]insights.Repository, error) {
	var teams []insights.Team
	err := r.invoker.Do(ctx, func(ctx context.Context) error {
		var err error
		teams, err = r.api.Teams(ctx, org)
		return err
	})
	if err != nil {
		return nil, err
	}

	var matched *insights.Team
	for i := range teams {
		if strings.EqualFold(teams[i].Name, team) || strings.EqualFold(teams[i].Slug, team) {
			matched = &teams[i]
			break
		}
	}
	if matched == nil {
		return nil, &NotFoundError{
			Message: fmt.Sprintf("team %q not found in organization %q", team, org),
		}
	}

	return r.listRepos(ctx, func(ctx context.Context) ([]insights.Repository, error) {
		return r.api.TeamRepositories(ctx, org, matched.Slug)
	})
}
