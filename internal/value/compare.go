package value

import "strings"

// Compare orders two values.
//
// A list compared with a non-list is Equal when every alternative equals the
// other value. Values of different kinds are Unordered. Ranges are Equal only
// to identical ranges and Unordered otherwise; lists compare as sets.
func Compare(a, b Value) Order {
	la, aList := a.(List)
	lb, bList := b.(List)
	switch {
	case aList && !bList:
		return compareListScalar(la, b, false)
	case bList && !aList:
		return compareListScalar(lb, a, true)
	}
	return compareNoList(a, b)
}

// compareListScalar compares every alternative of l against v. When flip is
// set the list was the right-hand operand.
func compareListScalar(l List, v Value, flip bool) Order {
	for _, elem := range l {
		var o Order
		if flip {
			o = Compare(v, elem)
		} else {
			o = Compare(elem, v)
		}
		if o != Equal {
			if len(l) == 1 {
				return o
			}
			return Unordered
		}
	}
	return Equal
}

func compareNoList(a, b Value) Order {
	switch x := a.(type) {
	case Int:
		if y, ok := b.(Int); ok {
			return orderOf(x < y, x > y)
		}
	case Double:
		if y, ok := b.(Double); ok {
			if x != y && !(x < y) && !(x > y) {
				return Unordered // NaN
			}
			return orderOf(x < y, x > y)
		}
	case String:
		if y, ok := b.(String); ok {
			return Order(strings.Compare(string(x), string(y)))
		}
	case Bool:
		if y, ok := b.(Bool); ok {
			if x == y {
				return Equal
			}
			return Unordered
		}
	case Fraction:
		if y, ok := b.(Fraction); ok {
			return Order(cmpFraction(x, y))
		}
	case IntRange:
		if y, ok := b.(IntRange); ok && x == y {
			return Equal
		}
	case DoubleRange:
		if y, ok := b.(DoubleRange); ok && x == y {
			return Equal
		}
	case FractionRange:
		if y, ok := b.(FractionRange); ok && cmpFraction(x.Min, y.Min) == 0 && cmpFraction(x.Max, y.Max) == 0 {
			return Equal
		}
	case List:
		if y, ok := b.(List); ok && listsEqual(x, y) {
			return Equal
		}
	case Array:
		if y, ok := b.(Array); ok && arraysEqual(x, y) {
			return Equal
		}
	case Custom:
		if y, ok := b.(Custom); ok && sameExtType(x, y) {
			if o, ok := x.Ext.(Orderer); ok {
				return o.Compare(y.Ext)
			}
			if x.Ext.Equal(y.Ext) {
				return Equal
			}
		}
	}
	return Unordered
}

func orderOf(less, greater bool) Order {
	switch {
	case less:
		return Less
	case greater:
		return Greater
	}
	return Equal
}

// listsEqual reports whether two lists hold the same set of alternatives.
func listsEqual(a, b List) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, x := range a {
		for i, y := range b {
			if !used[i] && Compare(x, y) == Equal {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

func arraysEqual(a, b Array) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if Compare(a[i], b[i]) != Equal {
			return false
		}
	}
	return true
}

// IsFixed reports whether v denotes exactly one concrete value.
// Scalars are fixed, arrays are fixed when all elements are, and ranges and
// lists never are.
func IsFixed(v Value) bool {
	switch x := v.(type) {
	case Int, Double, String, Bool, Fraction:
		return true
	case Array:
		for _, elem := range x {
			if !IsFixed(elem) {
				return false
			}
		}
		return true
	case Custom:
		if r, ok := x.Ext.(FixedReporter); ok {
			return r.IsFixed()
		}
		return true
	}
	return false
}

// EqualValues reports whether Compare(a, b) is Equal.
func EqualValues(a, b Value) bool {
	return Compare(a, b) == Equal
}
