package solver

import "time"

// Status is the outcome of one solve call.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusInvalid
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// Stats carries solve statistics for logging and metrics.
type Stats struct {
	WallTime     time.Duration
	Rounds       int // backend invocations, including objective tightening
	Improvements int // incumbent improvements found after the first solution
	Vars         int
	Constraints  int
}

// Result is the readback of one solve call. Values are only meaningful when
// Feasible() reports true.
type Result struct {
	Status    Status
	Objective int64
	Stats     Stats
	values    []bool
}

// Feasible reports whether the result carries a usable assignment.
func (r *Result) Feasible() bool {
	return r.Status == StatusOptimal || r.Status == StatusFeasible
}

// Value returns the assigned value of v. False for out-of-range handles.
func (r *Result) Value(v Bool) bool {
	if v < 1 || int(v) > len(r.values) {
		return false
	}
	return r.values[v-1]
}
