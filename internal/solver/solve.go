package solver

import (
	"context"
	"errors"
	"math"
)

type node struct {
	lo, hi []float64
}

func (n node) branch(j int, lo, hi float64) node {
	c := node{
		lo: append([]float64(nil), n.lo...),
		hi: append([]float64(nil), n.hi...),
	}
	c.lo[j], c.hi[j] = lo, hi
	return c
}

// split halves the range of integer variable j.
func (n node) split(j int) (down, up node) {
	mid := n.lo[j]
	if !math.IsInf(n.hi[j], 1) {
		mid = math.Floor((n.lo[j] + n.hi[j]) / 2)
	}
	return n.branch(j, n.lo[j], mid), n.branch(j, mid+1, n.hi[j])
}

// Solve optimises p. Infeasible and unbounded models are reported through
// Solution.Status, not as errors; errors are reserved for malformed problems
// and context cancellation.
//
// Before branching, supportSearch seeds an incumbent from sparse integer
// assignments; the search is then depth-first and returns the first optimum
// it proves. When several assignments share the optimal objective, which one
// is returned is unspecified.
func Solve(ctx context.Context, p Problem, opts Options) (Solution, error) {
	if err := p.validate(); err != nil {
		return Solution{}, err
	}
	if opts.NodeLimit <= 0 {
		opts.NodeLimit = DefaultNodeLimit
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.Support == 0 {
		opts.Support = DefaultSupport
	}

	n := p.numVars()
	cost := make([]float64, n)
	integral := true
	for j, c := range p.Objective {
		cost[j] = c
		if p.Maximize {
			cost[j] = -c
		}
		if !p.isInteger(j) || c != math.Trunc(c) {
			integral = false
		}
	}
	r := &relaxer{p: p, cost: cost, tol: opts.Tolerance}

	root := node{lo: make([]float64, n), hi: make([]float64, n)}
	for j := 0; j < n; j++ {
		lo, hi := p.bounds(j)
		if p.isInteger(j) {
			lo = math.Ceil(lo - integralityTol)
			if !math.IsInf(hi, 1) {
				hi = math.Floor(hi + integralityTol)
			}
		}
		root.lo[j], root.hi[j] = lo, hi
	}

	var best []float64
	bestObj := math.Inf(1)
	improve := func(x []float64) {
		if obj := dot(cost, x); best == nil || obj < bestObj {
			best, bestObj = x, obj
		}
	}
	// prunes reports whether a node whose relaxation is bounded below by
	// bound can still beat the incumbent. Integral objectives only improve
	// in whole steps.
	prunes := func(bound float64) bool {
		if best == nil {
			return false
		}
		if integral {
			return bound > bestObj-1+integralityTol
		}
		return bound >= bestObj-1e-9*math.Max(1, math.Abs(bestObj))
	}

	if opts.Support > 0 {
		x, err := supportSearch(ctx, p, opts.Support)
		if err != nil {
			return Solution{}, err
		}
		if x != nil {
			improve(x)
		}
	}

	nodes, skipped := 0, 0
	hitLimit := false
	stack := []node{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return Solution{Nodes: nodes}, err
		}
		if nodes >= opts.NodeLimit {
			hitLimit = true
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		if prunes(boxBound(cost, nd.lo, nd.hi)) {
			continue
		}

		rel, err := r.solve(nd.lo, nd.hi)
		if err != nil {
			if !errors.Is(err, errNumerical) {
				return Solution{Nodes: nodes}, err
			}
			// No bound for this node: split it blindly so the subtree is
			// still searched.
			skipped++
			if j := firstUnfixed(p, nd); j >= 0 {
				down, up := nd.split(j)
				stack = append(stack, up, down)
			}
			continue
		}
		switch rel.status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			return Solution{Status: StatusUnbounded, Nodes: nodes}, nil
		}

		if prunes(rel.obj) {
			continue
		}

		j := branchVariable(p, rel.x)
		if j < 0 {
			improve(roundIntegers(p, rel.x))
			continue
		}
		if x := roundIntegers(p, rel.x); p.satisfies(x) {
			improve(x)
			if prunes(rel.obj) {
				continue
			}
		}

		v := rel.x[j]
		down := nd.branch(j, nd.lo[j], math.Floor(v))
		up := nd.branch(j, math.Ceil(v), nd.hi[j])
		// Depth-first: the side nearer to v is pushed last and explored first.
		if v-math.Floor(v) >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	sol := Solution{Nodes: nodes, Skipped: skipped}
	switch {
	case best == nil && hitLimit:
		sol.Status = StatusNodeLimit
	case best == nil:
		sol.Status = StatusInfeasible
	case hitLimit:
		sol.Status = StatusNodeLimit
	default:
		sol.Status = StatusOptimal
	}
	if best != nil {
		sol.X = best
		for j, c := range p.Objective {
			sol.Objective += c * best[j]
		}
	}
	return sol, nil
}

// branchVariable picks the integer variable furthest from integrality, or -1
// when every integer variable is integral.
func branchVariable(p Problem, x []float64) int {
	idx, worst := -1, integralityTol
	for j, v := range x {
		if !p.isInteger(j) {
			continue
		}
		frac := v - math.Floor(v)
		if d := math.Min(frac, 1-frac); d > worst {
			idx, worst = j, d
		}
	}
	return idx
}

// firstUnfixed returns the first integer variable the node leaves open, or
// -1.
func firstUnfixed(p Problem, nd node) int {
	for j := range nd.lo {
		if p.isInteger(j) && nd.hi[j]-nd.lo[j] >= 1 {
			return j
		}
	}
	return -1
}

func roundIntegers(p Problem, x []float64) []float64 {
	out := append([]float64(nil), x...)
	for j := range out {
		if p.isInteger(j) {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

// boxBound is the smallest cost the node's bounds allow, ignoring every
// constraint.
func boxBound(cost, lo, hi []float64) float64 {
	b := 0.0
	for j, c := range cost {
		switch {
		case c > 0:
			b += c * lo[j]
		case c < 0:
			if math.IsInf(hi[j], 1) {
				return math.Inf(-1)
			}
			b += c * hi[j]
		}
	}
	return b
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
