package leaguesync

import (
	"errors"
	"fmt"
	"time"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
)

// State is the phase a league's sync is in.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateMapping     State = "mapping"
	StateReconciling State = "reconciling"
	StateFailed      State = "failed"
)

// RunStatus is the last known sync state of one league.
type RunStatus struct {
	State          State
	LastAttempt    time.Time
	LastSuccess    time.Time
	LastErrorKind  apperr.Kind
	LastError      string
	UpstreamStatus int
}

// Running reports whether a run is in flight.
func (s RunStatus) Running() bool {
	switch s.State {
	case StateFetching, StateMapping, StateReconciling:
		return true
	}
	return false
}

// SyncError records where a run failed. Nothing from the run is committed.
type SyncError struct {
	LeagueID string
	Stage    State
	Status   int
	Err      error
}

func (e *SyncError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("sync league %s failed while %s (upstream status %d): %v", e.LeagueID, e.Stage, e.Status, e.Err)
	}
	return fmt.Sprintf("sync league %s failed while %s: %v", e.LeagueID, e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// AsSyncError returns the *SyncError in err's chain, if any.
func AsSyncError(err error) (*SyncError, bool) {
	var se *SyncError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
