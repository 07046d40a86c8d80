package common

import (
	"net/http/httptest"
	"testing"

	"github.com/vizydrop/github-data-link/pkg/connector"
)

func TestToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		target   string
		expected string
	}{
		{
			name:     "Header token",
			header:   "token abc123",
			target:   "/vizydrop",
			expected: "abc123",
		},
		{
			name:     "Query token",
			target:   "/vizydrop?token=query-token",
			expected: "query-token",
		},
		{
			name:     "Header wins over query",
			header:   "token from-header",
			target:   "/vizydrop?token=from-query",
			expected: "from-header",
		},
		{
			name:     "Scheme matches case-insensitively",
			header:   "Token abc123",
			target:   "/vizydrop",
			expected: "abc123",
		},
		{
			name:     "Bearer scheme is not the token scheme",
			header:   "Bearer abc123",
			target:   "/vizydrop",
			expected: "",
		},
		{
			name:     "Empty header falls back to query",
			header:   "token ",
			target:   "/vizydrop?token=fallback",
			expected: "fallback",
		},
		{
			name:     "No token at all",
			target:   "/vizydrop",
			expected: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			if got := Token(r); got != tt.expected {
				t.Errorf("Token() = %q; expected %q", got, tt.expected)
			}
		})
	}
}

func TestParseSelector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected connector.Selector
	}{
		{
			name:     "Root is the logged-in user",
			path:     "/",
			expected: connector.LoggedInUser(),
		},
		{
			name:     "One segment is an organization",
			path:     "/vizydrop",
			expected: connector.Organization("vizydrop"),
		},
		{
			name:     "Reserved users segment is an owner",
			path:     "/users/octocat",
			expected: connector.Owner("octocat"),
		},
		{
			name:     "Two segments are a single repository",
			path:     "/vizydrop/data-link",
			expected: connector.OwnerRepo("vizydrop", "data-link"),
		},
		{
			name:     "Team path",
			path:     "/vizydrop/team/core",
			expected: connector.Team("vizydrop", "core"),
		},
		{
			name:     "Trailing slash is tolerated",
			path:     "/vizydrop/",
			expected: connector.Organization("vizydrop"),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sel, err := ParseSelector(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %s", err.Error())
			}
			if sel != tt.expected {
				t.Errorf("ParseSelector(%q) = %+v; expected %+v", tt.path, sel, tt.expected)
			}
		})
	}
}

func TestParseSelectorErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
	}{
		{
			name: "Three segments without team keyword",
			path: "/vizydrop/data-link/extra",
		},
		{
			name: "Too many segments",
			path: "/a/team/b/c",
		},
		{
			name: "Empty middle segment",
			path: "/vizydrop//data-link",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseSelector(tt.path); err == nil {
				t.Errorf("ParseSelector(%q) expected an error, got none", tt.path)
			}
		})
	}
}
