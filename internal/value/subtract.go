package value

// Subtract removes the values of s from m. The boolean is false when nothing
// of m is left. When s removes nothing, the returned value compares Equal to
// m; callers rely on telling "unchanged" apart from "partially removed".
//
// Some results over-approximate the true difference: double and fraction
// ranges keep their closed bounds, and an int range minus an int range of a
// different step is only narrowed when one side covers the other.
func Subtract(m, s Value) (Value, bool) {
	if l, ok := m.(List); ok {
		return subtractFromList(l, s)
	}
	if l, ok := s.(List); ok {
		return subtractList(m, l)
	}

	switch x := m.(type) {
	case Int:
		if y, ok := s.(IntRange); ok {
			if _, in := intersectIntIntRange(x, y); in {
				return nil, false
			}
			return m, true
		}
	case IntRange:
		switch y := s.(type) {
		case Int:
			return subtractIntRangeInt(x, int64(y))
		case IntRange:
			return subtractIntRanges(x, y)
		}
	case Double:
		if y, ok := s.(DoubleRange); ok {
			if _, in := intersectDoubleDoubleRange(x, y); in {
				return nil, false
			}
			return m, true
		}
	case DoubleRange:
		switch y := s.(type) {
		case Double:
			// An open interval cannot be represented; keep the closed range.
			return m, true
		case DoubleRange:
			return subtractDoubleRanges(x, y)
		}
	case Fraction:
		if y, ok := s.(FractionRange); ok {
			if _, in := intersectFractionFractionRange(x, y); in {
				return nil, false
			}
			return m, true
		}
	case FractionRange:
		switch y := s.(type) {
		case Fraction:
			return m, true
		case FractionRange:
			return subtractFractionRanges(x, y)
		}
	case Custom:
		if y, ok := s.(Custom); ok && sameExtType(x, y) {
			if sub, ok := x.Ext.(Subtractor); ok {
				r, ok := sub.Subtract(y.Ext)
				if !ok {
					return nil, false
				}
				return Custom{Ext: r}, true
			}
		}
	}

	if Compare(m, s) != Equal {
		return m, true
	}
	return nil, false
}

// subtractFromList subtracts s from every alternative of l and keeps what
// survives.
func subtractFromList(l List, s Value) (Value, bool) {
	var out []Value
	for _, elem := range l {
		if r, ok := Subtract(elem, s); ok {
			out = appendUnique(out, r)
		}
	}
	return collapse(out)
}

// subtractList removes every alternative of l from m in turn.
func subtractList(m Value, l List) (Value, bool) {
	result := m
	for _, elem := range l {
		r, ok := Subtract(result, elem)
		if !ok {
			return nil, false
		}
		result = r
	}
	return result, true
}

func subtractIntRangeInt(r IntRange, v int64) (Value, bool) {
	if v < r.Min || v > r.Max || v%r.Step != 0 {
		return r, true
	}
	return joinIntRanges(r.Min, v-r.Step, v+r.Step, r.Max, r.Step)
}

func subtractIntRanges(a, b IntRange) (Value, bool) {
	if a.Step != b.Step {
		return subtractIntRangesMixedStep(a, b)
	}
	step := a.Step
	switch {
	case b.Max >= a.Max && b.Min <= a.Min:
		return nil, false
	case b.Max >= a.Max:
		return joinIntRanges(a.Min, min(b.Min-step, a.Max), step, 0, step)
	case b.Min <= a.Min:
		return joinIntRanges(max(b.Max+step, a.Min), a.Max, step, 0, step)
	}
	return joinIntRanges(a.Min, min(b.Min-step, a.Max), max(b.Max+step, a.Min), a.Max, step)
}

// subtractIntRangesMixedStep handles ranges whose steps differ. The result
// is exact when the ranges are disjoint or b covers a; otherwise a is kept.
func subtractIntRangesMixedStep(a, b IntRange) (Value, bool) {
	if _, ok := intersectIntRanges(a, b); !ok {
		return a, true
	}
	if intRangeCovers(b, a) {
		return nil, false
	}
	return a, true
}

// joinIntRanges builds the union of [min1, max1] and [min2, max2], either of
// which may be empty (min > max) or a single value.
func joinIntRanges(min1, max1, min2, max2, step int64) (Value, bool) {
	var out []Value
	if min1 <= max1 {
		out = append(out, NewIntRangeStep(min1, max1, step))
	}
	if min2 <= max2 {
		out = append(out, NewIntRangeStep(min2, max2, step))
	}
	return collapse(out)
}

func subtractDoubleRanges(a, b DoubleRange) (Value, bool) {
	var out []Value
	if a.Min < b.Min {
		out = append(out, NewDoubleRange(a.Min, min(b.Min, a.Max)))
	}
	if b.Max < a.Max {
		out = append(out, NewDoubleRange(max(b.Max, a.Min), a.Max))
	}
	return collapse(out)
}

func subtractFractionRanges(a, b FractionRange) (Value, bool) {
	var out []Value
	if cmpFraction(a.Min, b.Min) < 0 {
		hi := a.Max
		if cmpFraction(b.Min, hi) < 0 {
			hi = b.Min
		}
		out = append(out, NewFractionRange(a.Min, hi))
	}
	if cmpFraction(b.Max, a.Max) < 0 {
		lo := a.Min
		if cmpFraction(b.Max, lo) > 0 {
			lo = b.Max
		}
		out = append(out, NewFractionRange(lo, a.Max))
	}
	return collapse(out)
}
