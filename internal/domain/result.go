package domain

import (
	"errors"
	"fmt"
)

// ErrMissingDocument is returned when a tracker feed has no top-level
// <kml><Document> container. A feed whose Document exists but carries no
// Folder is not an error; it parses to an empty feed.
var ErrMissingDocument = errors.New("feed has no document container")

// FetchError reports a failed request against an upstream source, either a
// transport failure or a non-2xx response.
type FetchError struct {
	Source     string
	StatusCode int // 0 when the request never produced a response
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Status classifies the outcome of reading one source so callers can tell
// "no data" apart from "failed to fetch".
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SourceResult is the per-entity outcome of a tracker fetch.
type SourceResult struct {
	Entity    TrackedEntity
	Status    Status
	Positions []TrackedPosition
	Err       error
}

// NewSourceResult classifies positions and err into a SourceResult.
func NewSourceResult(entity TrackedEntity, positions []TrackedPosition, err error) SourceResult {
	switch {
	case err != nil:
		return SourceResult{Entity: entity, Status: StatusFailed, Err: err}
	case len(positions) == 0:
		return SourceResult{Entity: entity, Status: StatusEmpty}
	default:
		return SourceResult{Entity: entity, Status: StatusOK, Positions: positions}
	}
}
