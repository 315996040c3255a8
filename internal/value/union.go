package value

// Union merges a and b into one value covering both. Int and int range
// operands merge into a single range when they are contiguous; everything
// else becomes a list of alternatives. The boolean is false only when the
// operands cannot share a field: a list combined with an array.
func Union(a, b Value) (Value, bool) {
	if !listArrayCompatible(a, b) {
		return nil, false
	}

	switch x := a.(type) {
	case Int:
		if y, ok := b.(IntRange); ok {
			if r, ok := unionIntIntRange(x, y); ok {
				return r, true
			}
		}
	case IntRange:
		switch y := b.(type) {
		case Int:
			if r, ok := unionIntIntRange(y, x); ok {
				return r, true
			}
		case IntRange:
			if r, ok := unionIntRanges(x, y); ok {
				return r, true
			}
		}
	case Custom:
		if y, ok := b.(Custom); ok && sameExtType(x, y) {
			if u, ok := x.Ext.(Unioner); ok {
				if r, ok := u.Union(y.Ext); ok {
					return Custom{Ext: r}, true
				}
			}
		}
	}

	out := appendUnique(nil, a)
	out = appendUnique(out, b)
	return collapse(out)
}

func listArrayCompatible(a, b Value) bool {
	_, aList := a.(List)
	_, bList := b.(List)
	_, aArr := a.(Array)
	_, bArr := b.(Array)
	return !(aList && bArr) && !(aArr && bList)
}

func unionIntIntRange(v Int, r IntRange) (Value, bool) {
	n := int64(v)
	switch {
	case n >= r.Min && n <= r.Max && n%r.Step == 0:
		return r, true
	case n == r.Min-r.Step:
		return IntRange{Min: n, Max: r.Max, Step: r.Step}, true
	case n == r.Max+r.Step:
		return IntRange{Min: r.Min, Max: n, Step: r.Step}, true
	}
	return nil, false
}

func unionIntRanges(a, b IntRange) (Value, bool) {
	if intRangeCovers(b, a) {
		return b, true
	}
	if intRangeCovers(a, b) {
		return a, true
	}
	if a.Step == b.Step {
		step := a.Step
		if a.Min <= b.Max+step && a.Max >= b.Min-step {
			return IntRange{Min: min(a.Min, b.Min), Max: max(a.Max, b.Max), Step: step}, true
		}
	}
	return nil, false
}

// intRangeCovers reports whether every value of inner is also in outer.
func intRangeCovers(outer, inner IntRange) bool {
	return inner.Min >= outer.Min &&
		inner.Max <= outer.Max &&
		inner.Step%outer.Step == 0 &&
		inner.Min%outer.Step == 0
}

// IsSubset reports whether a is a strict subset of b: removing b from a
// leaves nothing while removing a from b leaves something. Int ranges are
// checked directly since subtraction between different steps is
// approximate.
func IsSubset(a, b Value) bool {
	if x, ok := a.(IntRange); ok {
		if y, ok := b.(IntRange); ok {
			return intRangeCovers(y, x)
		}
	}
	if _, ok := Subtract(a, b); ok {
		return false
	}
	_, ok := Subtract(b, a)
	return ok
}
