// Package tap tracks the IEEE 1149.1 Test Access Port state machine and
// answers shortest-path queries against it. It performs no I/O: callers
// drive a physical or simulated adapter with the TMS bit sequences this
// package produces.
package tap

import (
	"errors"
	"fmt"
)

// State represents one of the 16 defined IEEE 1149.1 TAP controller states.
type State uint8

const (
	StateTestLogicReset State = iota
	StateRunTestIdle
	StateSelectDRScan
	StateCaptureDR
	StateShiftDR
	StateExit1DR
	StatePauseDR
	StateExit2DR
	StateUpdateDR
	StateSelectIRScan
	StateCaptureIR
	StateShiftIR
	StateExit1IR
	StatePauseIR
	StateExit2IR
	StateUpdateIR

	numStates = 16
)

var stateNames = map[State]string{
	StateTestLogicReset: "TestLogicReset",
	StateRunTestIdle:    "RunTestIdle",
	StateSelectDRScan:   "SelectDRScan",
	StateCaptureDR:      "CaptureDR",
	StateShiftDR:        "ShiftDR",
	StateExit1DR:        "Exit1DR",
	StatePauseDR:        "PauseDR",
	StateExit2DR:        "Exit2DR",
	StateUpdateDR:       "UpdateDR",
	StateSelectIRScan:   "SelectIRScan",
	StateCaptureIR:      "CaptureIR",
	StateShiftIR:        "ShiftIR",
	StateExit1IR:        "Exit1IR",
	StatePauseIR:        "PauseIR",
	StateExit2IR:        "Exit2IR",
	StateUpdateIR:       "UpdateIR",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", s)
}

// ErrInvalidState is returned when a query names a state outside the 16
// defined TAP states, or when SetEndState is asked for a non-stable state.
var ErrInvalidState = errors.New("tap: invalid state")

type stateTransitions struct {
	onZero State
	onOne  State
}

var transitions = [numStates]stateTransitions{
	StateTestLogicReset: {onZero: StateRunTestIdle, onOne: StateTestLogicReset},
	StateRunTestIdle:    {onZero: StateRunTestIdle, onOne: StateSelectDRScan},
	StateSelectDRScan:   {onZero: StateCaptureDR, onOne: StateSelectIRScan},
	StateCaptureDR:      {onZero: StateShiftDR, onOne: StateExit1DR},
	StateShiftDR:        {onZero: StateShiftDR, onOne: StateExit1DR},
	StateExit1DR:        {onZero: StatePauseDR, onOne: StateUpdateDR},
	StatePauseDR:        {onZero: StatePauseDR, onOne: StateExit2DR},
	StateExit2DR:        {onZero: StateShiftDR, onOne: StateUpdateDR},
	StateUpdateDR:       {onZero: StateRunTestIdle, onOne: StateSelectDRScan},
	StateSelectIRScan:   {onZero: StateCaptureIR, onOne: StateTestLogicReset},
	StateCaptureIR:      {onZero: StateShiftIR, onOne: StateExit1IR},
	StateShiftIR:        {onZero: StateShiftIR, onOne: StateExit1IR},
	StateExit1IR:        {onZero: StatePauseIR, onOne: StateUpdateIR},
	StatePauseIR:        {onZero: StatePauseIR, onOne: StateExit2IR},
	StateExit2IR:        {onZero: StateShiftIR, onOne: StateUpdateIR},
	StateUpdateIR:       {onZero: StateRunTestIdle, onOne: StateSelectDRScan},
}

// NextState returns the next TAP state after clocking TCK with the provided
// TMS value.
func NextState(current State, tms bool) State {
	row := transitions[current]
	if tms {
		return row.onOne
	}
	return row.onZero
}

// stableStates are the four states a TAP controller may be parked in
// between shift operations.
var stableStates = map[State]bool{
	StateTestLogicReset: true,
	StateRunTestIdle:    true,
	StatePauseDR:        true,
	StatePauseIR:        true,
}

// IsStable reports whether state is one of Reset, Idle, DRPause or IRPause.
func IsStable(state State) bool {
	return stableStates[state]
}

// sequence is the TMS drive pattern, LSB-first, needed to walk the TAP from
// one state to another, along with its length.
type sequence struct {
	bits []bool
}

// pathTable[from][to] holds the precomputed shortest TMS sequence between
// every pair of the 16 TAP states. It is built once at init time by
// breadth-first search over the transition graph: the graph is small and
// static, so paying the BFS cost once and reading a plain array afterwards
// is preferable to re-deriving a path on every call.
var pathTable [numStates][numStates]sequence

func init() {
	for from := State(0); from < numStates; from++ {
		pathTable[from] = bfsFrom(from)
	}
}

func bfsFrom(from State) [numStates]sequence {
	var table [numStates]sequence
	table[from] = sequence{bits: []bool{}}

	visited := [numStates]bool{}
	visited[from] = true
	queue := []State{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, bit := range [2]bool{false, true} {
			next := NextState(cur, bit)
			if visited[next] {
				continue
			}
			visited[next] = true
			path := make([]bool, len(table[cur].bits)+1)
			copy(path, table[cur].bits)
			path[len(path)-1] = bit
			table[next] = sequence{bits: path}
			queue = append(queue, next)
		}
	}
	return table
}

func validState(s State) bool {
	return s < numStates
}

// PathTMSBits returns the TMS bit sequence, LSB-first, that drives the TAP
// from `from` to `to`.
func PathTMSBits(from, to State) ([]bool, error) {
	if !validState(from) || !validState(to) {
		return nil, fmt.Errorf("%w: from=%v to=%v", ErrInvalidState, from, to)
	}
	return pathTable[from][to].bits, nil
}

// PathLen returns the length of the TMS sequence driving the TAP from
// `from` to `to`. It is always equal to len(PathTMSBits(from, to)) and never
// exceeds 7 for any reachable pair of the 16 states.
func PathLen(from, to State) (int, error) {
	bits, err := PathTMSBits(from, to)
	if err != nil {
		return 0, err
	}
	return len(bits), nil
}

// Follower tracks the TAP controller's current state and the end state the
// next shift operation should settle into. It performs no I/O; request
// translators mutate it after emitting the wire commands that correspond to
// a transition.
type Follower struct {
	current State
	end     State
}

// NewFollower creates a TAP follower initialized to Test-Logic-Reset with a
// default end state of Run-Test/Idle.
func NewFollower() *Follower {
	return &Follower{current: StateTestLogicReset, end: StateRunTestIdle}
}

// Current reports the TAP state the follower believes the adapter is in.
func (f *Follower) Current() State {
	return f.current
}

// EndState reports the state translators should settle into once a shift
// completes, absent an explicit per-request override.
func (f *Follower) EndState() State {
	return f.end
}

// SetEndState updates the desired end state. It fails with ErrInvalidState
// if state is not one of the four stable states.
func (f *Follower) SetEndState(state State) error {
	if !IsStable(state) {
		return fmt.Errorf("%w: %v is not a stable state", ErrInvalidState, state)
	}
	f.end = state
	return nil
}

// SetCurrent records the TAP state the adapter has physically settled into.
// Called by request translators once the corresponding wire commands have
// been appended to a batch.
func (f *Follower) SetCurrent(state State) {
	f.current = state
}

// PathTo computes the TMS sequence from the follower's current state to
// target, without mutating the follower. Callers apply SetCurrent once the
// commands carrying this sequence have actually been queued.
func (f *Follower) PathTo(target State) ([]bool, error) {
	return PathTMSBits(f.current, target)
}
