// Package apperr defines the error taxonomy shared across the service and
// its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotAuthorized means no token set has ever been persisted; the
	// operator must run the interactive authorization flow.
	ErrNotAuthorized = errors.New("not authorized: no token set stored, complete the authorization flow first")

	// ErrReauthorizationRequired means the stored token set has no refresh
	// token, so a silent refresh is impossible.
	ErrReauthorizationRequired = errors.New("reauthorization required: stored token set has no refresh token")
)

// NotFoundError marks a resource that is absent from an upstream listing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NotFound creates a NotFoundError for the given resource and id.
func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// UpstreamAuthError means the upstream token endpoint rejected a code or
// refresh exchange. The upstream status and body are kept for diagnostics.
type UpstreamAuthError struct {
	Status int
	Body   string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d: %s", e.Status, e.Body)
}

// UpstreamRequestError means a resource call failed, including a second 401
// after the single refresh-and-retry.
type UpstreamRequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *UpstreamRequestError) Error() string {
	return fmt.Sprintf("upstream %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// HTTPStatus maps an error onto the status code the HTTP surface must
// return. NotFound maps to 404; everything else is a generic 500 for
// client compatibility.
func HTTPStatus(err error) int {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// UpstreamStatus returns the upstream status carried by err, if any. Used
// by routes that pass the upstream status through to the caller.
func UpstreamStatus(err error) (int, bool) {
	var reqErr *UpstreamRequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status, true
	}
	var authErr *UpstreamAuthError
	if errors.As(err, &authErr) {
		return authErr.Status, true
	}
	return 0, false
}
