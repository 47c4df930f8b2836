package bayes

import "sort"

// factor is a non-negative table over a set of model variables.
// vars holds model indices in ascending order; values is row-major with the
// last variable varying fastest. A factor with no vars is a scalar.
type factor struct {
	vars   []int
	card   []int
	values []float64
}

func newFactor(vars []int, model *Model) *factor {
	card := make([]int, len(vars))
	size := 1
	for i, v := range vars {
		card[i] = model.vars[v].Cardinality
		size *= card[i]
	}
	return &factor{vars: vars, card: card, values: make([]float64, size)}
}

// cptFactor turns the CPT of child into a factor over the unobserved members of
// child and its parents. Observed dimensions are sliced at the value held in
// assign, so assign must carry the evidence on entry.
func cptFactor(model *Model, child int, observed []bool, assign []int) *factor {
	c := model.cpts[child]
	var scope []int
	for _, v := range unionScope([]int{child}, c.parents) {
		if !observed[v] {
			scope = append(scope, v)
		}
	}

	f := newFactor(scope, model)
	forEach(f, assign, func(i int) {
		f.values[i] = c.table[assign[child]][model.column(c, assign)]
	})
	return f
}

func (f *factor) mentions(v int) bool {
	for _, x := range f.vars {
		if x == v {
			return true
		}
	}
	return false
}

// at reads the entry selected by the values of f.vars in assign.
func (f *factor) at(assign []int) float64 {
	idx := 0
	for k, v := range f.vars {
		idx = idx*f.card[k] + assign[v]
	}
	return f.values[idx]
}

// multiply returns the pointwise product of fs over the union of their scopes.
func multiply(model *Model, fs []*factor, assign []int) *factor {
	if len(fs) == 1 {
		return fs[0]
	}

	var scope []int
	for _, f := range fs {
		scope = unionScope(scope, f.vars)
	}

	out := newFactor(scope, model)
	forEach(out, assign, func(i int) {
		p := 1.0
		for _, f := range fs {
			p *= f.at(assign)
		}
		out.values[i] = p
	})
	return out
}

// sumOut marginalizes v out of f.
func sumOut(model *Model, f *factor, v int, assign []int) *factor {
	keep := make([]int, 0, len(f.vars))
	for _, x := range f.vars {
		if x != v {
			keep = append(keep, x)
		}
	}

	out := newFactor(keep, model)
	card := model.vars[v].Cardinality
	forEach(out, assign, func(i int) {
		var s compensatedSum
		for x := 0; x < card; x++ {
			assign[v] = x
			s.add(f.at(assign))
		}
		out.values[i] = s.value()
	})
	return out
}

// forEach walks every assignment of f.vars in row-major order, writing the
// current values into assign before calling fn with the flat index. Entries of
// assign outside f.vars are left untouched.
func forEach(f *factor, assign []int, fn func(i int)) {
	for _, v := range f.vars {
		assign[v] = 0
	}
	for i := range f.values {
		fn(i)
		for k := len(f.vars) - 1; k >= 0; k-- {
			v := f.vars[k]
			assign[v]++
			if assign[v] < f.card[k] {
				break
			}
			assign[v] = 0
		}
	}
}

// unionScope merges two index sets into one ascending set.
func unionScope(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	var out []int
	for _, s := range [][]int{a, b} {
		for _, v := range s {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Ints(out)
	return out
}
