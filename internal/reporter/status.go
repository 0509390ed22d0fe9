package reporter

import (
	"fmt"
	"sync"
)

// Status is a state of the report workflow.
type Status int

const (
	StatusIdle Status = iota
	StatusChecking
	StatusCollecting
	StatusSerializing
	StatusSubmitted
	StatusSucceeded
	StatusFailed
	StatusSkipped
	// StatusLogged means the report was built but submission is disabled.
	StatusLogged
)

var statusNames = [...]string{
	StatusIdle:        "idle",
	StatusChecking:    "checking",
	StatusCollecting:  "collecting",
	StatusSerializing: "serializing",
	StatusSubmitted:   "submitted",
	StatusSucceeded:   "succeeded",
	StatusFailed:      "failed",
	StatusSkipped:     "skipped",
	StatusLogged:      "logged",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped, StatusLogged:
		return true
	}
	return false
}

// VersionState is an in-memory State, for hosts that persist the version
// themselves.
type VersionState struct {
	mu sync.Mutex
	v  int
}

// NewVersionState returns a State starting at last.
func NewVersionState(last int) *VersionState {
	return &VersionState{v: last}
}

func (s *VersionState) LastReportedVersion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

func (s *VersionState) SetLastReportedVersion(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
}
