package solver

import (
	"context"
	"math"
)

const (
	// keyScale quantises equality-row activities before hashing. Values with
	// up to three decimals never land on a rounding boundary at this scale.
	keyScale = 1024
	// maxKeyValue keeps quantised activities inside int64.
	maxKeyValue = 1e12
	maxKeyRows  = 4
)

type supportKey [maxKeyRows]int64

func keyOf(v []float64) supportKey {
	var k supportKey
	for i, x := range v {
		k[i] = int64(math.Round(x * keyScale))
	}
	return k
}

// supportSearch looks for a feasible assignment that puts at most size units
// on the variables. Sizes are tried in increasing order, so the first hit has
// the fewest units. Equality rows are hashed per variable, which turns the
// last unit of every combination into a map lookup.
//
// It returns nil when the problem is outside its reach: continuous variables,
// non-zero lower bounds or no equality row to hash on.
func supportSearch(ctx context.Context, p Problem, size int) ([]float64, error) {
	n := p.numVars()
	var eq []int
	for k, c := range p.Constraints {
		if c.Sense == Equal {
			eq = append(eq, k)
		}
	}
	if size < 1 || len(eq) == 0 {
		return nil, nil
	}
	if len(eq) > maxKeyRows {
		eq = eq[:maxKeyRows]
	}

	units := make([]int, n)
	for j := 0; j < n; j++ {
		lo, hi := p.bounds(j)
		if !p.isInteger(j) || lo != 0 {
			return nil, nil
		}
		units[j] = size
		if hi < float64(size) {
			units[j] = int(math.Floor(hi + integralityTol))
		}
	}

	rhs := make([]float64, len(eq))
	cols := make([][]float64, n)
	for j := range cols {
		cols[j] = make([]float64, len(eq))
	}
	for r, k := range eq {
		c := p.Constraints[k]
		if !keyable(c.RHS) {
			return nil, nil
		}
		rhs[r] = c.RHS
		for j, a := range c.Coeffs {
			if !keyable(a) {
				return nil, nil
			}
			cols[j][r] = a
		}
	}

	index := make(map[supportKey][]int)
	for j := 0; j < n; j++ {
		if units[j] > 0 {
			k := keyOf(cols[j])
			index[k] = append(index[k], j)
		}
	}

	x := make([]float64, n)
	// place tries the multiset js; it leaves x untouched on failure.
	place := func(js ...int) bool {
		for _, j := range js {
			x[j]++
		}
		ok := true
		for _, j := range js {
			if x[j] > float64(units[j]) {
				ok = false
			}
		}
		if ok && p.satisfies(x) {
			return true
		}
		for _, j := range js {
			x[j]--
		}
		return false
	}

	rem := make([]float64, len(eq))
	remainder := func(js ...int) supportKey {
		for r := range rem {
			rem[r] = rhs[r]
			for _, j := range js {
				rem[r] -= cols[j][r]
			}
		}
		return keyOf(rem)
	}

	// Units are placed in non-decreasing variable order so each multiset is
	// visited once.
	for _, l := range index[remainder()] {
		if place(l) {
			return x, nil
		}
	}
	if size < 2 {
		return nil, nil
	}
	for i := 0; i < n; i++ {
		if units[i] < 1 {
			continue
		}
		for _, l := range index[remainder(i)] {
			if l >= i && place(i, l) {
				return x, nil
			}
		}
	}
	if size < 3 {
		return nil, nil
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if units[i] < 1 {
			continue
		}
		for j := i; j < n; j++ {
			if units[j] < 1 || (j == i && units[i] < 2) {
				continue
			}
			for _, l := range index[remainder(i, j)] {
				if l >= j && place(i, j, l) {
					return x, nil
				}
			}
		}
	}
	return nil, nil
}

func keyable(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= maxKeyValue
}
