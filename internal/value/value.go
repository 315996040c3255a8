// Package value implements the per-field value algebra used by caps.
//
// Value is a sealed sum type over the built-in kinds (scalars, ranges,
// lists and arrays) plus Custom, which wraps an Extension for types the
// built-ins do not cover. The algebra (Compare, Intersect, Subtract, Union,
// IsSubset, IsFixed, Fixate) is a set of package functions that dispatch
// on the concrete kinds.
//
// Values are immutable. Operations never modify their inputs; List and Array
// results are always freshly allocated slices.
package value

import (
	"fmt"
	"math/big"
)

// Value is a sealed interface. Only the types in this package implement it.
type Value interface {
	value() // Sealed
}

// Int is a fixed integer.
type Int int64

func (Int) value() {}

// Double is a fixed floating point number.
type Double float64

func (Double) value() {}

// String is a fixed string.
type String string

func (String) value() {}

// Bool is a fixed boolean.
type Bool bool

func (Bool) value() {}

// Fraction is a fixed rational number. Fractions built with NewFraction are
// reduced and carry a positive denominator.
type Fraction struct {
	Num int64
	Den int64
}

func (Fraction) value() {}

// IntRange is the set of integers Min, Min+Step, ..., Max.
// Min and Max are multiples of Step, Step >= 1 and Min < Max.
type IntRange struct {
	Min  int64
	Max  int64
	Step int64
}

func (IntRange) value() {}

// DoubleRange is the closed interval [Min, Max] with Min < Max.
type DoubleRange struct {
	Min float64
	Max float64
}

func (DoubleRange) value() {}

// FractionRange is the closed interval [Min, Max] with Min < Max.
type FractionRange struct {
	Min Fraction
	Max Fraction
}

func (FractionRange) value() {}

// List is an unordered set of alternatives; any one of them is acceptable.
// Lists are never fixed.
type List []Value

func (List) value() {}

// Array is an ordered tuple. An Array is fixed when every element is.
type Array []Value

func (Array) value() {}

// Custom wraps a value whose algebra is provided by an Extension.
type Custom struct {
	Ext Extension
}

func (Custom) value() {}

// Order is the result of Compare.
type Order int

const (
	Less Order = iota - 1
	Equal
	Greater
	// Unordered means the values are not comparable: different kinds,
	// overlapping but unequal ranges, or incomparable custom values.
	Unordered
)

// String returns a short name for the ordering.
func (o Order) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return "unordered"
	}
}

// NewFraction returns num/den in lowest terms with a positive denominator.
// Panics if den is zero.
func NewFraction(num, den int64) Fraction {
	if den == 0 {
		panic("value: fraction with zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return Fraction{Num: num, Den: den}
}

// NewIntRange returns the integer range [min, max] with step 1.
// A degenerate range (min == max) collapses to an Int.
func NewIntRange(min, max int64) Value {
	return NewIntRangeStep(min, max, 1)
}

// NewIntRangeStep returns the integer range [min, max] with the given step.
// min and max must be multiples of step and step must be positive.
// A degenerate range collapses to an Int; an inverted range is a contract
// violation and panics.
func NewIntRangeStep(min, max, step int64) Value {
	if step <= 0 || min%step != 0 || max%step != 0 {
		panic(fmt.Sprintf("value: invalid int range [%d, %d, %d]", min, max, step))
	}
	switch {
	case min == max:
		return Int(min)
	case min > max:
		panic(fmt.Sprintf("value: inverted int range [%d, %d]", min, max))
	}
	return IntRange{Min: min, Max: max, Step: step}
}

// NewDoubleRange returns [min, max], collapsing to a Double when min == max.
func NewDoubleRange(min, max float64) Value {
	switch {
	case min == max:
		return Double(min)
	case min > max:
		panic(fmt.Sprintf("value: inverted double range [%g, %g]", min, max))
	}
	return DoubleRange{Min: min, Max: max}
}

// NewFractionRange returns [min, max], collapsing to a Fraction when equal.
func NewFractionRange(min, max Fraction) Value {
	switch cmpFraction(min, max) {
	case 0:
		return min
	case 1:
		panic(fmt.Sprintf("value: inverted fraction range [%d/%d, %d/%d]", min.Num, min.Den, max.Num, max.Den))
	}
	return FractionRange{Min: min, Max: max}
}

// NewList returns a list of the given alternatives.
func NewList(vals ...Value) List {
	return List(append([]Value(nil), vals...))
}

// NewArray returns an array of the given elements.
func NewArray(vals ...Value) Array {
	return Array(append([]Value(nil), vals...))
}

// TypeName returns the serialization type name of v.
func TypeName(v Value) string {
	switch x := v.(type) {
	case Int:
		return "int"
	case Double:
		return "double"
	case String:
		return "string"
	case Bool:
		return "boolean"
	case Fraction:
		return "fraction"
	case IntRange:
		return "int"
	case DoubleRange:
		return "double"
	case FractionRange:
		return "fraction"
	case List:
		return "list"
	case Array:
		return "array"
	case Custom:
		return x.Ext.TypeName()
	default:
		return fmt.Sprintf("%T", v)
	}
}

// cmpFraction compares two fractions exactly, returning -1, 0 or 1.
func cmpFraction(a, b Fraction) int {
	l := new(big.Int).Mul(big.NewInt(a.Num), big.NewInt(b.Den))
	r := new(big.Int).Mul(big.NewInt(b.Num), big.NewInt(a.Den))
	return l.Cmp(r)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func lcm(a, b int64) int64 {
	return a / gcd(a, b) * b
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// floorDiv and ceilDiv round toward negative and positive infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}
