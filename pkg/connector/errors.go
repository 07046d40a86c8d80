package connector

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is a classified failure from the hosting API. Code carries
// the upstream HTTP status so the boundary can mirror it and the retry
// layer can recognize caller-input errors.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("github api responded %d: %s", e.Code, e.Message)
}

// NotFoundError is raised by the resolver itself, for targets the service
// looked up but could not match, such as a team name within an
// organization.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// IsTerminal reports whether err is caller-caused (unauthorized or
// not-found) and therefore must not be retried.
func IsTerminal(err error) bool {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return true
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Code == http.StatusUnauthorized || remote.Code == http.StatusNotFound
	}

	return false
}

// StatusCode maps an error to the HTTP status the pre-stream boundary
// should answer with. Unclassified failures default to 500.
func StatusCode(err error) int {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		switch remote.Code {
		case http.StatusUnauthorized, http.StatusNotFound:
			return remote.Code
		}
	}

	return http.StatusInternalServerError
}
