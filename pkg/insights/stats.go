// package insights provides the data structures flowing through the data
// link pipeline: repository descriptors, per-contributor weekly commit
// stats as returned by the hosting API, and the flat output rows consumed
// by the downstream analytics tool.
package insights

import "time"

// DateLayout renders dates the way the downstream consumer expects them,
// e.g. "02-Jan-2006" for both the repository creation date and week starts.
const DateLayout = "02-Jan-2006"

// UnknownMember is the display name used when a contributor stats entry
// carries no attributable login.
const UnknownMember = "Unknown Member"

// UnknownLanguage is the sentinel for repositories where the hosting API
// reports no primary language.
const UnknownLanguage = "N/A"

// Repository describes one repository as reported by the hosting API.
// Fields are read-only within the pipeline.
type Repository struct {
	Owner     string
	Name      string
	CreatedAt time.Time
	Language  string
	SizeKB    int
	Private   bool
}

// Team is an organization team as reported by the hosting API.
type Team struct {
	Name string
	Slug string
}

// User is a user profile, used for optional display name enrichment.
type User struct {
	Login string
	Name  string
}

// ContributorStats holds the weekly activity of a single contributor in a
// single repository. Login is empty when the upstream could not attribute
// the activity to an account.
type ContributorStats struct {
	Login string
	Weeks []WeekStat
}

// WeekStat is one week of contributor activity.
type WeekStat struct {
	WeekStart time.Time
	Additions int
	Deletions int
	Commits   int
}

// OutputRow is the flat record streamed to the caller. The JSON field
// names are a fixed contract with the downstream consumer and must not
// change.
type OutputRow struct {
	Owner     string `json:"Repository Owner"`
	Name      string `json:"Repository Name"`
	CreatedOn string `json:"Repository Created On"`
	Language  string `json:"Repository Language"`
	SizeKB    int    `json:"Repository Size"`
	Private   bool   `json:"Is Private"`
	Member    string `json:"Member"`
	Week      string `json:"Week"`
	Additions int    `json:"Code Additions"`
	Deletions int    `json:"Code Deletions"`
	Commits   int    `json:"Code Commits"`
}

// NameResolver maps a contributor login to a display name. The identity
// resolver is used when profile enrichment is disabled.
type NameResolver func(login string) string

// Flatten expands one contributor stats entry into flat rows, one per week
// with any activity. Weeks where additions, deletions and commits are all
// zero carry no information and are dropped.
func Flatten(repo Repository, stats ContributorStats, resolve NameResolver) []OutputRow {
	member := UnknownMember
	if stats.Login != "" {
		member = stats.Login
		if resolve != nil {
			member = resolve(stats.Login)
		}
	}

	language := repo.Language
	if language == "" {
		language = UnknownLanguage
	}

	var rows []OutputRow
	for _, week := range stats.Weeks {
		if week.Additions == 0 && week.Deletions == 0 && week.Commits == 0 {
			continue
		}
		rows = append(rows, OutputRow{
			Owner:     repo.Owner,
			Name:      repo.Name,
			CreatedOn: repo.CreatedAt.Format(DateLayout),
			Language:  language,
			SizeKB:    repo.SizeKB,
			Private:   repo.Private,
			Member:    member,
			Week:      week.WeekStart.Format(DateLayout),
			Additions: week.Additions,
			Deletions: week.Deletions,
			Commits:   week.Commits,
		})
	}

	return rows
}
