package listquery

import (
	"strconv"
	"time"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
)

// Phase is the fetch state of a controller
type Phase int

const (
	// PhaseIdle means no fetch is in flight
	PhaseIdle Phase = iota
	// PhaseResetting means a page-1 fetch for a new identity is in flight
	PhaseResetting
	// PhaseAppending means a page-N fetch for the current identity is in flight
	PhaseAppending
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResetting:
		return "resetting"
	case PhaseAppending:
		return "appending"
	default:
		return "phase(" + strconv.Itoa(int(p)) + ")"
	}
}

// Identity is what "page 1" means: the search query plus the applied filters
type Identity struct {
	Query   string
	Filters entities.AppliedFilterPayload
}

// Key returns a comparable rendering of the identity
func (i Identity) Key() string {
	return "q=" + strconv.Quote(i.Query) + "|" + i.Filters.Canonical()
}

// Snapshot is a copy of what a list view renders
type Snapshot struct {
	Items       []entities.ContentItem
	Page        int
	HasNext     bool
	Loading     bool
	LoadingMore bool
	Err         error
	Query       string
	Filters     entities.AppliedFilterPayload
	Version     uint64
	Phase       Phase
}

// Empty reports a settled list with no results. This is a valid end state,
// not an error.
func (s Snapshot) Empty() bool {
	return s.Phase == PhaseIdle && s.Err == nil && len(s.Items) == 0 && !s.HasNext
}

// EventKind identifies a controller notification
type EventKind int

const (
	// EventReset is sent when a reset fetch starts
	EventReset EventKind = iota
	// EventAppend is sent when an append fetch starts
	EventAppend
	// EventPageLoaded is sent when a fetch result has been applied
	EventPageLoaded
	// EventFailed is sent when a current fetch failed
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventReset:
		return "reset"
	case EventAppend:
		return "append"
	case EventPageLoaded:
		return "page_loaded"
	case EventFailed:
		return "failed"
	default:
		return "event(" + strconv.Itoa(int(k)) + ")"
	}
}

// Event describes one transition. Stale results never produce events.
type Event struct {
	Kind     EventKind
	Page     int
	Latency  time.Duration
	Err      error
	Identity Identity
	State    Snapshot
}

// Listener observes controller transitions. Events arrive in transition order
// and without the controller lock held, so a listener may call State or
// LoadMore; events caused by such calls are delivered after the current one.
type Listener func(Event)
