package connector

import "fmt"

// SelectorKind discriminates the repository set a request targets.
type SelectorKind int

const (
	// SelectLoggedInUser targets repositories the token's identity is
	// affiliated with.
	SelectLoggedInUser SelectorKind = iota

	// SelectOrganization targets all repositories of an organization.
	SelectOrganization

	// SelectOwner targets all repositories of an arbitrary owner login.
	SelectOwner

	// SelectOwnerRepo targets a single repository.
	SelectOwnerRepo

	// SelectTeam targets the repositories of one organization team.
	SelectTeam
)

// Selector is the request intent, constructed once per request and
// immutable afterwards.
type Selector struct {
	Kind         SelectorKind
	Organization string
	Owner        string
	Repository   string
	Team         string
}

// LoggedInUser selects repositories affiliated with the token's identity.
func LoggedInUser() Selector {
	return Selector{Kind: SelectLoggedInUser}
}

// Organization selects all repositories of the named organization.
func Organization(name string) Selector {
	return Selector{Kind: SelectOrganization, Organization: name}
}

// Owner selects all repositories of the named owner login.
func Owner(name string) Selector {
	return Selector{Kind: SelectOwner, Owner: name}
}

// OwnerRepo selects a single repository.
func OwnerRepo(owner, name string) Selector {
	return Selector{Kind: SelectOwnerRepo, Owner: owner, Repository: name}
}

// Team selects the repositories of one organization team, matched by
// display name or slug.
func Team(organization, team string) Selector {
	return Selector{Kind: SelectTeam, Organization: organization, Team: team}
}

func (s Selector) String() string {
	switch s.Kind {
	case SelectLoggedInUser:
		return "logged-in user"
	case SelectOrganization:
		return fmt.Sprintf("organization %s", s.Organization)
	case SelectOwner:
		return fmt.Sprintf("owner %s", s.Owner)
	case SelectOwnerRepo:
		return fmt.Sprintf("repository %s/%s", s.Owner, s.Repository)
	case SelectTeam:
		return fmt.Sprintf("team %s of organization %s", s.Team, s.Organization)
	}
	return "unknown selector"
}
