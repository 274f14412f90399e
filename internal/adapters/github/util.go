package github

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// StatusError wraps non-2xx HTTP responses from GitHub with status and body
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string

	server bool
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.Status)
}

// HTTPStatus returns the wrapped status code
func (e *StatusError) HTTPStatus() int { return e.Status }

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// StatusBody returns the response body of a StatusError, or "" for other errors
func StatusBody(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Body
	}
	return ""
}

// rateRemaining parses X-RateLimit-Remaining; missing or garbage reads as -1
// so only an explicit zero counts as exhausted
func rateRemaining(h http.Header) int {
	s := strings.TrimSpace(h.Get("X-RateLimit-Remaining"))
	if s == "" {
		return -1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
