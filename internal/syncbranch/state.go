// Package syncbranch orchestrates selective pull/push of Argus's sharded
// artifacts against the argus-data orphan branch, and tracks the
// Sync state machine. Grounded on original_source's
// infrastructure/storage/git_branch_store.py pull/push flow, adapted from
// a whole-directory push to the selective, manifest-driven protocol the
// spec requires, and on internal/ghclient for the underlying API calls.
package syncbranch

import "fmt"

// State is one state in the per-run sync state machine.
type State string

const (
	StateIdle       State = "idle"
	StatePulling    State = "pulling"
	StateLoaded     State = "loaded"
	StateWriting    State = "writing"
	StatePushed     State = "pushed"
	StatePullFailed State = "pull_failed"
	StatePushFailed State = "push_failed"
)

// Machine guards the Sync state transitions: Idle -> Pulling ->
// Loaded -> Writing -> Pushed, with PullFailed and PushFailed as terminal
// states reachable from Pulling and Writing respectively, each retried at
// most once by the caller before being treated as terminal.
type Machine struct {
	state State
}

// NewMachine starts a machine in the Idle state.
func NewMachine() *Machine { return &Machine{state: StateIdle} }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Transition moves the machine to next, rejecting any edge not in the
// state diagram.
func (m *Machine) Transition(next State) error {
	if !allowed(m.state, next) {
		return fmt.Errorf("sync: illegal transition %s -> %s", m.state, next)
	}
	m.state = next
	return nil
}

func allowed(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StatePulling
	case StatePulling:
		return to == StateLoaded || to == StatePullFailed
	case StateLoaded:
		return to == StateWriting
	case StateWriting:
		return to == StatePushed || to == StatePushFailed
	case StatePullFailed:
		return to == StatePulling // one retry
	case StatePushFailed:
		return to == StateWriting // one retry
	default:
		return false
	}
}
