package session

import "github.com/leapstack-labs/leapgate/pkg/core"

// transition is one row of the lifecycle table: the states an operation may
// be invoked from and the state it moves to on success.
type transition struct {
	from []core.State
	// to is the state entered on success. keep means the state is unchanged.
	to   core.State
	keep bool
}

// transitions is the closed lifecycle table. Operations not listed here, or
// invoked from a state not in their from set, are rejected.
var transitions = map[core.Operation]transition{
	core.OpLoadDataset: {
		from: []core.State{core.StateNoSession},
		to:   core.StateDataLoaded,
	},
	core.OpListColumns: {
		from: []core.State{core.StateDataLoaded, core.StateTargetSelected},
		keep: true,
	},
	core.OpSelectTarget: {
		from: []core.State{core.StateDataLoaded, core.StateTargetSelected},
		to:   core.StateTargetSelected,
	},
	core.OpRunDiagnostics: {
		from: []core.State{core.StateTargetSelected},
		to:   core.StateDiagnosticsRunning,
	},
	core.OpFetchReport: {
		from: []core.State{core.StateModelDecided, core.StateModelExecution},
		keep: true,
	},
	core.OpAuthorizeModeling: {
		from: []core.State{core.StateModelDecided},
		to:   core.StateModelExecution,
	},
	core.OpReset: {
		from: core.States,
		to:   core.StateNoSession,
	},
}

// check returns the state op leads to from current, or an InvalidStateError.
func check(op core.Operation, current core.State) (core.State, error) {
	t, ok := transitions[op]
	if !ok {
		return current, &core.InvalidStateError{Op: op, Current: current}
	}
	for _, s := range t.from {
		if s == current {
			if t.keep {
				return current, nil
			}
			return t.to, nil
		}
	}
	required := make([]core.State, len(t.from))
	copy(required, t.from)
	return current, &core.InvalidStateError{Op: op, Current: current, Required: required}
}

// Allowed reports whether op may be invoked from state s.
func Allowed(op core.Operation, s core.State) bool {
	_, err := check(op, s)
	return err == nil
}
