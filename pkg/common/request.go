// package common provides the request-boundary helpers shared by the data
// link server: access token extraction and mapping request paths onto
// repository selectors.
package common

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vizydrop/github-data-link/pkg/connector"
)

const tokenScheme = "token "

// Token extracts the caller's access token from the request, checking the
// "Authorization: token <value>" header first and the "token" query
// parameter second. The scheme matches case-insensitively like other
// Authorization schemes. An empty string means no token was supplied.
func Token(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if len(authorization) >= len(tokenScheme) && strings.EqualFold(authorization[:len(tokenScheme)], tokenScheme) {
		if token := strings.TrimSpace(authorization[len(tokenScheme):]); token != "" {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

// ParseSelector maps a request path onto a repository selector:
//
//	/                    logged-in user
//	/users/:owner        all repositories of an owner login
//	/:organization       all repositories of an organization
//	/:owner/:repository  a single repository
//	/:org/team/:team     an organization team's repositories
//
// The "users" first segment is reserved so owner and organization
// selections stay distinguishable.
func ParseSelector(path string) (connector.Selector, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return connector.LoggedInUser(), nil
	}

	segments := strings.Split(trimmed, "/")
	for _, segment := range segments {
		if segment == "" {
			return connector.Selector{}, fmt.Errorf("malformed request path: %s", path)
		}
	}

	switch {
	case len(segments) == 1:
		return connector.Organization(segments[0]), nil
	case len(segments) == 2 && segments[0] == "users":
		return connector.Owner(segments[1]), nil
	case len(segments) == 2:
		return connector.OwnerRepo(segments[0], segments[1]), nil
	case len(segments) == 3 && segments[1] == "team":
		return connector.Team(segments[0], segments[2]), nil
	}

	return connector.Selector{}, fmt.Errorf("no selector matches request path: %s", path)
}
