package core

import "strings"

// State is a position in the session lifecycle.
// States are declared in their strict forward order.
type State int

// Session lifecycle states.
const (
	StateNoSession State = iota
	StateDataLoaded
	StateTargetSelected
	StateDiagnosticsRunning
	StateModelDecided
	StateModelExecution
)

// States lists every state in forward order.
var States = []State{
	StateNoSession,
	StateDataLoaded,
	StateTargetSelected,
	StateDiagnosticsRunning,
	StateModelDecided,
	StateModelExecution,
}

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNoSession:
		return "NO_SESSION"
	case StateDataLoaded:
		return "DATA_LOADED"
	case StateTargetSelected:
		return "TARGET_SELECTED"
	case StateDiagnosticsRunning:
		return "DIAGNOSTICS_RUNNING"
	case StateModelDecided:
		return "MODEL_DECIDED"
	case StateModelExecution:
		return "MODEL_EXECUTION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseState converts a string to a State value.
func ParseState(s string) (State, bool) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, st := range States {
		if st.String() == want {
			return st, true
		}
	}
	return StateNoSession, false
}

// Operation names a caller-facing session operation.
type Operation string

// Session operations.
const (
	OpLoadDataset       Operation = "load_dataset"
	OpListColumns       Operation = "list_columns"
	OpSelectTarget      Operation = "select_target"
	OpRunDiagnostics    Operation = "run_diagnostics"
	OpFetchReport       Operation = "fetch_report"
	OpAuthorizeModeling Operation = "authorize_modeling"
	OpReset             Operation = "reset"
)
