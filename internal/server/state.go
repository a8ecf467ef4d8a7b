package server

import "fmt"

// State is the lifecycle state of a Server.
//
// A server cycles Stopped → Starting → Running → Stopping → Stopped. A failed
// bind goes Starting → Stopped.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

// String returns the lowercase name of the state
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
