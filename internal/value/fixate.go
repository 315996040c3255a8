package value

import "math"

// Fixate picks a fixed representative of v: the minimum of a range, the
// first alternative of a list, and each element of an array. Values that
// are already fixed are returned unchanged.
func Fixate(v Value) Value {
	switch x := v.(type) {
	case IntRange:
		return Int(x.Min)
	case DoubleRange:
		return Double(x.Min)
	case FractionRange:
		return x.Min
	case List:
		if len(x) == 0 {
			return v
		}
		return Fixate(x[0])
	case Array:
		out := make(Array, len(x))
		for i, elem := range x {
			out[i] = Fixate(elem)
		}
		return out
	case Custom:
		if f, ok := x.Ext.(Fixater); ok && !IsFixed(v) {
			return Custom{Ext: f.Fixate()}
		}
	}
	return v
}

// FixateNearestInt picks the integer in v closest to target. Ties go to the
// smaller value. It returns false when v holds no integers.
func FixateNearestInt(v Value, target int64) (Value, bool) {
	switch x := v.(type) {
	case Int:
		return x, true
	case IntRange:
		switch {
		case target <= x.Min:
			return Int(x.Min), true
		case target >= x.Max:
			return Int(x.Max), true
		}
		lo := floorDiv(target, x.Step) * x.Step
		hi := lo + x.Step
		if target-lo <= hi-target {
			return Int(lo), true
		}
		return Int(hi), true
	case List:
		var best Value
		var bestDist uint64
		for _, elem := range x {
			c, ok := FixateNearestInt(elem, target)
			if !ok {
				continue
			}
			n := int64(c.(Int))
			d := distInt(n, target)
			if best == nil || d < bestDist || (d == bestDist && n < int64(best.(Int))) {
				best, bestDist = c, d
			}
		}
		return best, best != nil
	}
	return nil, false
}

func distInt(a, b int64) uint64 {
	if a > b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// FixateNearestDouble picks the double in v closest to target.
func FixateNearestDouble(v Value, target float64) (Value, bool) {
	switch x := v.(type) {
	case Double:
		return x, true
	case DoubleRange:
		return Double(math.Min(math.Max(target, x.Min), x.Max)), true
	case List:
		var best Value
		bestDist := math.Inf(1)
		for _, elem := range x {
			c, ok := FixateNearestDouble(elem, target)
			if !ok {
				continue
			}
			if d := math.Abs(float64(c.(Double)) - target); d < bestDist {
				best, bestDist = c, d
			}
		}
		return best, best != nil
	}
	return nil, false
}

// FixateNearestFraction picks the fraction in v closest to target.
func FixateNearestFraction(v Value, target Fraction) (Value, bool) {
	switch x := v.(type) {
	case Fraction:
		return x, true
	case FractionRange:
		switch {
		case cmpFraction(target, x.Min) <= 0:
			return x.Min, true
		case cmpFraction(target, x.Max) >= 0:
			return x.Max, true
		}
		return NewFraction(target.Num, target.Den), true
	case List:
		var best Value
		bestDist := math.Inf(1)
		for _, elem := range x {
			c, ok := FixateNearestFraction(elem, target)
			if !ok {
				continue
			}
			if d := math.Abs(fractionFloat(c.(Fraction)) - fractionFloat(target)); d < bestDist {
				best, bestDist = c, d
			}
		}
		return best, best != nil
	}
	return nil, false
}

func fractionFloat(f Fraction) float64 {
	return float64(f.Num) / float64(f.Den)
}
