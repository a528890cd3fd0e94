package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	boundTol      = 1e-9
	dependenceTol = 1e-9
	residualTol   = 1e-6

	// basisPosTol and basisCond mirror the checks gonum applies to a
	// supplied initial basis; failing them there is a panic.
	basisPosTol = 1e-13
	basisCond   = 1e12
)

// errNumerical marks LP engine failures that only condemn the current node.
var errNumerical = errors.New("numerical failure")

// relaxation is the LP optimum of one node, in minimisation form.
type relaxation struct {
	status Status
	obj    float64
	x      []float64
}

type row struct {
	coeffs []float64 // over the node's free variables
	sense  Sense
	rhs    float64
}

// relaxer solves LP relaxations of p under per-node variable bounds.
//
// Upper bounds are added to the LP lazily: a simplex vertex has at most one
// positive variable per row, so only the few variables that overshoot their
// bound get an explicit bound row. This keeps the matrix at a handful of rows
// no matter how many candidates there are.
type relaxer struct {
	p    Problem
	cost []float64
	tol  float64
}

func (r *relaxer) solve(lo, hi []float64) (relaxation, error) {
	n := len(r.cost)
	infeasible := relaxation{status: StatusInfeasible}

	x := make([]float64, n)
	objConst := 0.0
	for j := 0; j < n; j++ {
		if hi[j] < lo[j]-boundTol {
			return infeasible, nil
		}
		x[j] = lo[j]
		objConst += r.cost[j] * lo[j]
	}

	// Shift every variable to y = x - lo so all lower bounds become zero.
	rhs := make([]float64, len(r.p.Constraints))
	for k, c := range r.p.Constraints {
		rhs[k] = c.RHS
		for j, a := range c.Coeffs {
			rhs[k] -= a * lo[j]
		}
	}

	var free []int
	for j := 0; j < n; j++ {
		if hi[j]-lo[j] <= boundTol {
			continue
		}
		if r.inAnyConstraint(j) {
			free = append(free, j)
			continue
		}
		// Unconstrained variable: it sits on whichever bound the cost prefers.
		if r.cost[j] < 0 {
			if math.IsInf(hi[j], 1) {
				return relaxation{status: StatusUnbounded}, nil
			}
			x[j] = hi[j]
			objConst += r.cost[j] * (hi[j] - lo[j])
		}
	}

	rows := make([]row, 0, len(r.p.Constraints))
	for k, c := range r.p.Constraints {
		coeffs := make([]float64, len(free))
		nonzero := false
		for i, j := range free {
			coeffs[i] = c.Coeffs[j]
			if coeffs[i] != 0 {
				nonzero = true
			}
		}
		if !nonzero {
			if !constantSatisfies(c.Sense, rhs[k]) {
				return infeasible, nil
			}
			continue
		}
		// Unit row scale keeps the simplex tolerances meaningful when one
		// row counts calories and another grams.
		scale := maxAbs(coeffs)
		for i := range coeffs {
			coeffs[i] /= scale
		}
		rows = append(rows, row{coeffs: coeffs, sense: c.Sense, rhs: rhs[k] / scale})
	}

	rows, ok := dropDependentEqualities(rows)
	if !ok {
		return infeasible, nil
	}

	upper := make([]float64, len(free))
	for i, j := range free {
		upper[i] = hi[j] - lo[j]
	}
	active := make([]bool, len(free))

	for {
		y, f, status, err := r.solveStandard(free, rows, upper, active)
		if err != nil {
			return relaxation{}, err
		}
		switch status {
		case StatusInfeasible:
			return infeasible, nil
		case StatusUnbounded:
			// The missing bound rows may be what lets the LP run away.
			if !activateFinite(upper, active) {
				return relaxation{status: StatusUnbounded}, nil
			}
			continue
		}

		violated := false
		for i := range free {
			if !active[i] && y[i] > upper[i]+boundTol {
				active[i] = true
				violated = true
			}
		}
		if violated {
			continue
		}

		for i, j := range free {
			x[j] = lo[j] + y[i]
		}
		return relaxation{status: StatusOptimal, obj: f + objConst, x: x}, nil
	}
}

// solveStandard assembles and solves
//
//	minimise cost·y  s.t. rows, y[i] <= upper[i] for active i, y >= 0
//
// in gonum's standard form A·z = b, z >= 0, with one slack per inequality
// and per active bound.
func (r *relaxer) solveStandard(free []int, rows []row, upper []float64, active []bool) ([]float64, float64, Status, error) {
	nf := len(free)
	nActive := 0
	for _, a := range active {
		if a {
			nActive++
		}
	}

	if len(rows) == 0 && nActive == 0 {
		// Nothing couples the variables: each goes to its preferred bound.
		y := make([]float64, nf)
		f := 0.0
		for i, j := range free {
			if r.cost[j] >= 0 {
				continue
			}
			if math.IsInf(upper[i], 1) {
				return nil, 0, StatusUnbounded, nil
			}
			y[i] = upper[i]
			f += r.cost[j] * upper[i]
		}
		return y, f, StatusOptimal, nil
	}

	nSlack := 0
	for _, rw := range rows {
		if rw.sense != Equal {
			nSlack++
		}
	}
	m := len(rows) + nActive
	cols := nf + nSlack + nActive

	a := mat.NewDense(m, cols, nil)
	b := make([]float64, m)
	c := make([]float64, cols)
	for i, j := range free {
		c[i] = r.cost[j]
	}

	slack := nf
	for k, rw := range rows {
		for i, v := range rw.coeffs {
			a.Set(k, i, v)
		}
		switch rw.sense {
		case LessEq:
			a.Set(k, slack, 1)
			slack++
		case GreaterEq:
			a.Set(k, slack, -1)
			slack++
		}
		b[k] = rw.rhs
	}
	k := len(rows)
	for i, on := range active {
		if !on {
			continue
		}
		a.Set(k, i, 1)
		a.Set(k, slack, 1)
		b[k] = upper[i]
		slack++
		k++
	}

	// Keep b non-negative.
	for i := 0; i < m; i++ {
		if b[i] < 0 {
			b[i] = -b[i]
			for j := 0; j < cols; j++ {
				if v := a.At(i, j); v != 0 {
					a.Set(i, j, -v)
				}
			}
		}
	}

	f, z, err := lp.Simplex(c, a, b, r.tol, nil)
	switch {
	case err == nil:
		return z[:nf], f, StatusOptimal, nil
	case errors.Is(err, lp.ErrUnbounded):
		return nil, 0, StatusUnbounded, nil
	}

	// gonum's own phase one reports degenerate and square systems as
	// infeasible on round-off alone, so every other failure is re-checked.
	z, f, status, err := twoPhase(c, a, b, r.tol)
	if err != nil {
		return nil, 0, "", err
	}
	if status != StatusOptimal {
		return nil, 0, status, nil
	}
	return z[:nf], f, StatusOptimal, nil
}

// twoPhase solves min c·z s.t. A·z = b, z >= 0 (b >= 0) without gonum's
// phase one. Phase one minimises the sum of one artificial per row starting
// from the all-artificial basis; the problem is infeasible only if that sum
// stays positive. Phase two restarts gonum from a basis built around the
// phase-one vertex.
func twoPhase(c []float64, a *mat.Dense, b []float64, tol float64) ([]float64, float64, Status, error) {
	m, n := a.Dims()

	aux := mat.NewDense(m, n+m, nil)
	aux.Slice(0, m, 0, n).(*mat.Dense).Copy(a)
	cAux := make([]float64, n+m)
	artificial := make([]int, m)
	for i := 0; i < m; i++ {
		aux.Set(i, n+i, 1)
		cAux[n+i] = 1
		artificial[i] = n + i
	}
	infeas, w, err := lp.Simplex(cAux, aux, b, tol, artificial)
	if err != nil {
		return nil, 0, "", fmt.Errorf("%w: phase one: %v", errNumerical, err)
	}
	if infeas > residualTol*math.Max(1, maxAbs(b)) {
		return nil, 0, StatusInfeasible, nil
	}

	z := w[:n]
	for j, v := range z {
		if v < 0 {
			z[j] = 0
		}
	}
	if m == n {
		// gonum answers square systems with a plain solve; the phase-one
		// point is the only candidate.
		return z, dot(c, z), StatusOptimal, nil
	}

	basis, ok := basisAround(a, b, z)
	if !ok {
		return nil, 0, "", fmt.Errorf("%w: no feasible basis around the phase-one point", errNumerical)
	}
	f, x, err := lp.Simplex(c, a, b, tol, basis)
	switch {
	case err == nil:
		return x, f, StatusOptimal, nil
	case errors.Is(err, lp.ErrUnbounded):
		return nil, 0, StatusUnbounded, nil
	default:
		return nil, 0, "", fmt.Errorf("%w: phase two: %v", errNumerical, err)
	}
}

// basisAround picks m linearly independent columns of a, starting with the
// support of z and filling up from the last column (where the slacks live),
// and checks that the basic solution is feasible the way gonum will.
func basisAround(a *mat.Dense, b []float64, z []float64) ([]int, bool) {
	m, n := a.Dims()
	order := make([]int, 0, n)
	for j, v := range z {
		if v > 0 {
			order = append(order, j)
		}
	}
	for j := n - 1; j >= 0; j-- {
		if z[j] <= 0 {
			order = append(order, j)
		}
	}

	basis := make([]int, 0, m)
	ab := mat.NewDense(m, m, nil)
	col := make([]float64, m)
	for _, j := range order {
		if len(basis) == m {
			break
		}
		mat.Col(col, j, a)
		ab.SetCol(len(basis), col)
		if len(basis) > 0 && mat.Cond(ab.Slice(0, m, 0, len(basis)+1), 1) > basisCond {
			continue
		}
		basis = append(basis, j)
	}
	if len(basis) != m {
		return nil, false
	}

	var xb mat.VecDense
	if err := xb.SolveVec(ab, mat.NewVecDense(m, b)); err != nil {
		return nil, false
	}
	for i := 0; i < m; i++ {
		if xb.AtVec(i) < -basisPosTol {
			return nil, false
		}
	}
	return basis, true
}

func (r *relaxer) inAnyConstraint(j int) bool {
	for _, c := range r.p.Constraints {
		if c.Coeffs[j] != 0 {
			return true
		}
	}
	return false
}

func activateFinite(upper []float64, active []bool) bool {
	changed := false
	for i, u := range upper {
		if !active[i] && !math.IsInf(u, 1) {
			active[i] = true
			changed = true
		}
	}
	return changed
}

func constantSatisfies(sense Sense, rhs float64) bool {
	tol := residualTol * math.Max(1, math.Abs(rhs))
	switch sense {
	case LessEq:
		return 0 <= rhs+tol
	case GreaterEq:
		return 0 >= rhs-tol
	default:
		return math.Abs(rhs) <= tol
	}
}

// dropDependentEqualities removes equality rows that are linear
// combinations of earlier ones; gonum's simplex needs A to have full row
// rank. Inequality and bound rows carry their own slack column and can never
// be dependent. ok is false when a dependent row contradicts the others.
func dropDependentEqualities(rows []row) (out []row, ok bool) {
	var (
		basis  [][]float64
		pivots []int
		brhs   []float64
	)
	out = rows[:0:0]
	for _, rw := range rows {
		if rw.sense != Equal {
			out = append(out, rw)
			continue
		}
		v := append([]float64(nil), rw.coeffs...)
		rhs := rw.rhs
		for k, bv := range basis {
			factor := v[pivots[k]] / bv[pivots[k]]
			if factor == 0 {
				continue
			}
			for i := range v {
				v[i] -= factor * bv[i]
			}
			rhs -= factor * brhs[k]
		}

		scale := maxAbs(rw.coeffs)
		piv, mag := argMaxAbs(v)
		if mag <= dependenceTol*scale {
			if math.Abs(rhs) > residualTol*math.Max(1, math.Abs(rw.rhs)) {
				return nil, false
			}
			continue
		}
		basis = append(basis, v)
		pivots = append(pivots, piv)
		brhs = append(brhs, rhs)
		out = append(out, rw)
	}
	return out, true
}

func maxAbs(v []float64) float64 {
	_, m := argMaxAbs(v)
	return m
}

func argMaxAbs(v []float64) (int, float64) {
	idx, best := -1, 0.0
	for i, x := range v {
		if a := math.Abs(x); a > best {
			idx, best = i, a
		}
	}
	return idx, best
}
