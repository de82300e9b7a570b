package syncbranch

import "testing"

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachine()
	steps := []State{StatePulling, StateLoaded, StateWriting, StatePushed}
	for _, s := range steps {
		if err := m.Transition(s); err != nil {
			t.Fatalf("unexpected error transitioning to %s: %v", s, err)
		}
	}
	if m.State() != StatePushed {
		t.Fatalf("state = %s, want %s", m.State(), StatePushed)
	}
}

func TestMachine_ReviewPathEndsAtLoaded(t *testing.T) {
	m := NewMachine()
	if err := m.Transition(StatePulling); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(StateLoaded); err != nil {
		t.Fatal(err)
	}
	if m.State() != StateLoaded {
		t.Fatalf("state = %s, want %s", m.State(), StateLoaded)
	}
}

func TestMachine_PullFailureAllowsOneRetry(t *testing.T) {
	m := NewMachine()
	if err := m.Transition(StatePulling); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(StatePullFailed); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(StatePulling); err != nil {
		t.Fatalf("retry should be allowed: %v", err)
	}
}

func TestMachine_RejectsIllegalTransition(t *testing.T) {
	m := NewMachine()
	if err := m.Transition(StateLoaded); err == nil {
		t.Fatal("expected error jumping straight to Loaded from Idle")
	}
}
