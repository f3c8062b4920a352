package espn

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
)

// UpstreamError describes a failed call to the fantasy API.
type UpstreamError struct {
	StatusCode int
	LeagueID   string
	Views      []string
	Attempts   int
	Err        *apperr.Error
}

func (e *UpstreamError) Error() string {
	views := strings.Join(e.Views, ",")
	if e.StatusCode > 0 {
		return fmt.Sprintf("espn league %s [%s] status %d after %d attempt(s): %v", e.LeagueID, views, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("espn league %s [%s] after %d attempt(s): %v", e.LeagueID, views, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Kind() apperr.Kind {
	return e.Err.Kind
}

// Retryable reports whether another attempt may succeed.
func (e *UpstreamError) Retryable() bool {
	return e.Err.Kind == apperr.KindRateLimited || e.Err.Kind == apperr.KindUpstreamUnavailable
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}

func classifyStatus(status int) apperr.Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperr.KindUnauthorized
	case status == http.StatusNotFound:
		return apperr.KindNotFound
	case status == http.StatusTooManyRequests:
		return apperr.KindRateLimited
	case status >= 500:
		return apperr.KindUpstreamUnavailable
	}
	return apperr.KindInternal
}
