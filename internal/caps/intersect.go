package caps

import "iter"

// IntersectMode selects the order in which structure pairs are visited.
type IntersectMode int

const (
	// ZigZag walks the pair matrix along anti-diagonals, interleaving both
	// inputs' preference orders in the result.
	ZigZag IntersectMode = iota
	// First walks the matrix row by row, preserving the first input's order.
	First
)

// String returns the mode name used on command lines and in scenarios.
func (m IntersectMode) String() string {
	if m == First {
		return "first"
	}
	return "zigzag"
}

// ParseIntersectMode maps "zigzag" or "first" to a mode.
func ParseIntersectMode(s string) (IntersectMode, bool) {
	switch s {
	case "", "zigzag", "zig-zag":
		return ZigZag, true
	case "first":
		return First, true
	}
	return ZigZag, false
}

// Intersect returns the formats accepted by both a and b, in zig-zag order.
func Intersect(a, b *Caps) *Caps {
	return IntersectFull(a, b, ZigZag)
}

// IntersectFull returns the formats accepted by both a and b using the given
// traversal order. Identical inputs and ANY return a new reference to an
// input rather than a copy; use MakeWritable before modifying the result.
func IntersectFull(a, b *Caps, mode IntersectMode) *Caps {
	if a == b {
		return a.Ref()
	}
	if a.IsEmpty() || b.IsEmpty() {
		return NewEmpty()
	}
	if a.any {
		return b.Ref()
	}
	if b.any {
		return a.Ref()
	}

	pairs := zigzag(len(a.structures), len(b.structures))
	if mode == First {
		pairs = rowMajor(len(a.structures), len(b.structures))
	}

	w := NewWritable()
	for j, k := range pairs {
		if s, ok := intersectStructures(a.structures[j], b.structures[k]); ok {
			w.Merge(s)
		}
	}
	return w.Seal()
}

// CanIntersect reports whether a and b share at least one format without
// building the intersection.
func CanIntersect(a, b *Caps) bool {
	if a == b {
		return !a.IsEmpty()
	}
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	if a.any || b.any {
		return true
	}
	for j, k := range zigzag(len(a.structures), len(b.structures)) {
		if canIntersectStructures(a.structures[j], b.structures[k]) {
			return true
		}
	}
	return false
}

// zigzag yields index pairs of an n1 x n2 matrix along anti-diagonals:
//
//	     a
//	  +-----------
//	  | 1  2  4  7
//	b | 3  5  8 10
//	  | 6  9 11 12
func zigzag(n1, n2 int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		if n1 == 0 || n2 == 0 {
			return
		}
		for i := 0; i < n1+n2-1; i++ {
			j := min(i, n1-1)
			k := i - j
			for k < n2 {
				if !yield(j, k) {
					return
				}
				if j == 0 {
					break
				}
				j--
				k++
			}
		}
	}
}

func rowMajor(n1, n2 int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for j := 0; j < n1; j++ {
			for k := 0; k < n2; k++ {
				if !yield(j, k) {
					return
				}
			}
		}
	}
}
