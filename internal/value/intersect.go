package value

// Intersect returns the values present in both a and b. The boolean is
// false when the intersection is empty.
//
// Lists distribute over their alternatives; the surviving results are
// merged without duplicates and a single survivor is returned unwrapped.
func Intersect(a, b Value) (Value, bool) {
	if l, ok := a.(List); ok {
		return intersectList(l, b)
	}
	if l, ok := b.(List); ok {
		return intersectList(l, a)
	}
	if compareNoList(a, b) == Equal {
		return a, true
	}

	switch x := a.(type) {
	case Int:
		if y, ok := b.(IntRange); ok {
			return intersectIntIntRange(x, y)
		}
	case IntRange:
		switch y := b.(type) {
		case Int:
			return intersectIntIntRange(y, x)
		case IntRange:
			return intersectIntRanges(x, y)
		}
	case Double:
		if y, ok := b.(DoubleRange); ok {
			return intersectDoubleDoubleRange(x, y)
		}
	case DoubleRange:
		switch y := b.(type) {
		case Double:
			return intersectDoubleDoubleRange(y, x)
		case DoubleRange:
			return intersectDoubleRanges(x, y)
		}
	case Fraction:
		if y, ok := b.(FractionRange); ok {
			return intersectFractionFractionRange(x, y)
		}
	case FractionRange:
		switch y := b.(type) {
		case Fraction:
			return intersectFractionFractionRange(y, x)
		case FractionRange:
			return intersectFractionRanges(x, y)
		}
	case Array:
		if y, ok := b.(Array); ok {
			return intersectArrays(x, y)
		}
	case Custom:
		if y, ok := b.(Custom); ok && sameExtType(x, y) {
			if in, ok := x.Ext.(Intersector); ok {
				if r, ok := in.Intersect(y.Ext); ok {
					return Custom{Ext: r}, true
				}
			}
		}
	}
	return nil, false
}

// CanIntersect reports whether a and b have a non-empty intersection.
func CanIntersect(a, b Value) bool {
	_, ok := Intersect(a, b)
	return ok
}

func intersectList(l List, other Value) (Value, bool) {
	var out []Value
	for _, elem := range l {
		if r, ok := Intersect(elem, other); ok {
			out = appendUnique(out, r)
		}
	}
	return collapse(out)
}

func intersectIntIntRange(v Int, r IntRange) (Value, bool) {
	n := int64(v)
	if n >= r.Min && n <= r.Max && n%r.Step == 0 {
		return v, true
	}
	return nil, false
}

func intersectIntRanges(a, b IntRange) (Value, bool) {
	step := lcm(a.Step, b.Step)
	lo := ceilDiv(max(a.Min, b.Min), step) * step
	hi := floorDiv(min(a.Max, b.Max), step) * step
	switch {
	case lo < hi:
		return IntRange{Min: lo, Max: hi, Step: step}, true
	case lo == hi:
		return Int(lo), true
	}
	return nil, false
}

func intersectDoubleDoubleRange(v Double, r DoubleRange) (Value, bool) {
	if float64(v) >= r.Min && float64(v) <= r.Max {
		return v, true
	}
	return nil, false
}

func intersectDoubleRanges(a, b DoubleRange) (Value, bool) {
	lo := max(a.Min, b.Min)
	hi := min(a.Max, b.Max)
	switch {
	case lo < hi:
		return DoubleRange{Min: lo, Max: hi}, true
	case lo == hi:
		return Double(lo), true
	}
	return nil, false
}

func intersectFractionFractionRange(v Fraction, r FractionRange) (Value, bool) {
	if cmpFraction(v, r.Min) >= 0 && cmpFraction(v, r.Max) <= 0 {
		return v, true
	}
	return nil, false
}

func intersectFractionRanges(a, b FractionRange) (Value, bool) {
	lo := a.Min
	if cmpFraction(b.Min, lo) > 0 {
		lo = b.Min
	}
	hi := a.Max
	if cmpFraction(b.Max, hi) < 0 {
		hi = b.Max
	}
	switch cmpFraction(lo, hi) {
	case -1:
		return FractionRange{Min: lo, Max: hi}, true
	case 0:
		return lo, true
	}
	return nil, false
}

func intersectArrays(a, b Array) (Value, bool) {
	if len(a) != len(b) {
		return nil, false
	}
	out := make(Array, len(a))
	for i := range a {
		r, ok := Intersect(a[i], b[i])
		if !ok {
			return nil, false
		}
		out[i] = r
	}
	return out, true
}

// appendUnique adds v to vals, flattening lists and skipping alternatives
// already present.
func appendUnique(vals []Value, v Value) []Value {
	if l, ok := v.(List); ok {
		for _, elem := range l {
			vals = appendUnique(vals, elem)
		}
		return vals
	}
	for _, existing := range vals {
		if Compare(existing, v) == Equal {
			return vals
		}
	}
	return append(vals, v)
}

// collapse turns accumulated alternatives into a result: nothing, a single
// value, or a list.
func collapse(vals []Value) (Value, bool) {
	switch len(vals) {
	case 0:
		return nil, false
	case 1:
		return vals[0], true
	}
	return List(vals), true
}
