// Package solver solves small integer linear programs: LP relaxations go to
// gonum's simplex implementation and integrality is enforced by depth-first
// branch and bound, seeded by an enumeration heuristic over sparse
// assignments.
package solver

import (
	"errors"
	"fmt"
	"math"
)

// Sense is the relation of a constraint's left-hand side to its RHS.
type Sense int

const (
	LessEq Sense = iota
	Equal
	GreaterEq
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case Equal:
		return "=="
	case GreaterEq:
		return ">="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Status describes how a solve ended.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	// StatusNodeLimit means the search stopped early. X holds the best
	// integer solution found so far, if any.
	StatusNodeLimit Status = "node-limit"
)

// Constraint is sum(Coeffs[j] * x[j]) <Sense> RHS.
type Constraint struct {
	Name   string
	Coeffs []float64
	Sense  Sense
	RHS    float64
}

// Problem is a linear program over len(Objective) variables. Every variable
// is bounded below by Lower (0 when Lower is nil) and above by Upper (+Inf
// when Upper is nil).
type Problem struct {
	Objective   []float64
	Maximize    bool
	Constraints []Constraint
	Lower       []float64
	Upper       []float64
	// Integer marks variables that must take integral values. A nil slice
	// means a pure LP.
	Integer []bool
}

// Solution is the outcome of Solve.
type Solution struct {
	Status    Status
	Objective float64
	X         []float64
	Nodes     int
	// Skipped counts nodes whose relaxation the LP engine could not solve.
	// Those nodes are branched without a bound, so they cost nodes but never
	// hide solutions.
	Skipped int
}

// Feasible reports whether X holds a usable assignment.
func (s Solution) Feasible() bool {
	return s.X != nil && (s.Status == StatusOptimal || s.Status == StatusNodeLimit)
}

// Options tunes the search.
type Options struct {
	// NodeLimit caps the number of branch-and-bound nodes; 0 means
	// DefaultNodeLimit.
	NodeLimit int
	// Tolerance is the simplex tolerance; 0 means DefaultTolerance.
	Tolerance float64
	// Support is the largest number of units the enumeration heuristic
	// places before branching starts; 0 means DefaultSupport and a negative
	// value disables it.
	Support int
}

const (
	DefaultNodeLimit = 5000
	DefaultTolerance = 1e-9
	DefaultSupport   = 3

	integralityTol = 1e-6
)

// ErrInvalidProblem wraps malformed problem definitions.
var ErrInvalidProblem = errors.New("invalid problem")

func (p Problem) numVars() int {
	return len(p.Objective)
}

func (p Problem) validate() error {
	n := p.numVars()
	if n == 0 {
		return fmt.Errorf("%w: no variables", ErrInvalidProblem)
	}
	for i, c := range p.Constraints {
		if len(c.Coeffs) != n {
			return fmt.Errorf("%w: constraint %d (%s) has %d coefficients, want %d",
				ErrInvalidProblem, i, c.Name, len(c.Coeffs), n)
		}
		if c.Sense < LessEq || c.Sense > GreaterEq {
			return fmt.Errorf("%w: constraint %d has unknown sense %d", ErrInvalidProblem, i, int(c.Sense))
		}
	}
	if p.Lower != nil && len(p.Lower) != n {
		return fmt.Errorf("%w: %d lower bounds for %d variables", ErrInvalidProblem, len(p.Lower), n)
	}
	if p.Upper != nil && len(p.Upper) != n {
		return fmt.Errorf("%w: %d upper bounds for %d variables", ErrInvalidProblem, len(p.Upper), n)
	}
	if p.Integer != nil && len(p.Integer) != n {
		return fmt.Errorf("%w: %d integrality flags for %d variables", ErrInvalidProblem, len(p.Integer), n)
	}
	for j := 0; j < n; j++ {
		lo, hi := p.bounds(j)
		if math.IsInf(lo, 0) || math.IsNaN(lo) {
			return fmt.Errorf("%w: variable %d needs a finite lower bound", ErrInvalidProblem, j)
		}
		if hi < lo {
			return fmt.Errorf("%w: variable %d has upper bound %g below lower bound %g", ErrInvalidProblem, j, hi, lo)
		}
	}
	return nil
}

func (p Problem) bounds(j int) (lo, hi float64) {
	hi = math.Inf(1)
	if p.Lower != nil {
		lo = p.Lower[j]
	}
	if p.Upper != nil {
		hi = p.Upper[j]
	}
	return lo, hi
}

func (p Problem) isInteger(j int) bool {
	return p.Integer != nil && p.Integer[j]
}

// satisfies reports whether x lies within the variable bounds and meets every
// constraint up to residualTol.
func (p Problem) satisfies(x []float64) bool {
	for j, v := range x {
		lo, hi := p.bounds(j)
		if v < lo-boundTol || v > hi+boundTol {
			return false
		}
	}
	for _, c := range p.Constraints {
		lhs := 0.0
		for j, a := range c.Coeffs {
			lhs += a * x[j]
		}
		tol := residualTol * math.Max(1, math.Abs(c.RHS))
		switch c.Sense {
		case LessEq:
			if lhs > c.RHS+tol {
				return false
			}
		case GreaterEq:
			if lhs < c.RHS-tol {
				return false
			}
		default:
			if math.Abs(lhs-c.RHS) > tol {
				return false
			}
		}
	}
	return true
}
