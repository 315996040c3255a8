package caps

// Subtract returns the formats in minuend that are not in subtrahend. The
// result is simplified. ANY cannot be partially reduced, so subtracting
// anything other than ANY or EMPTY from ANY returns ANY.
func Subtract(minuend, subtrahend *Caps) *Caps {
	if minuend.IsEmpty() || subtrahend.any {
		return NewEmpty()
	}
	if subtrahend.IsEmpty() || minuend.any {
		return minuend.Ref()
	}

	working := cloneStructures(minuend.structures)
	for _, sub := range subtrahend.structures {
		var next []*Structure
		for _, m := range working {
			if m.name != sub.name {
				next = append(next, m)
				continue
			}
			residuals, ok := subtractStructure(m, sub)
			if !ok {
				next = append(next, m)
				continue
			}
			for r := range residuals {
				next = append(next, r)
			}
		}
		if len(next) == 0 {
			return NewEmpty()
		}
		working = next
	}

	w := NewWritable()
	for _, s := range working {
		w.Append(s)
	}
	w.Simplify()
	return w.Seal()
}

// IsSubset reports whether every format in sub is also in super.
func IsSubset(sub, super *Caps) bool {
	if sub.IsEmpty() || super.any {
		return true
	}
	if sub.any || super.IsEmpty() {
		return false
	}
	diff := Subtract(sub, super)
	defer diff.Unref()
	return diff.IsEmpty()
}

// IsEqual reports whether a and b describe the same set of formats,
// regardless of how the structures are split or ordered.
func IsEqual(a, b *Caps) bool {
	if a == b {
		return true
	}
	if a.any || b.any {
		return a.any == b.any
	}
	if a.IsFixed() && b.IsFixed() {
		return a.structures[0].Equal(b.structures[0])
	}
	return IsSubset(a, b) && IsSubset(b, a)
}

// IsStrictlyEqual reports whether a and b hold pairwise equal structures
// in the same order.
func IsStrictlyEqual(a, b *Caps) bool {
	if a == b {
		return true
	}
	if a.any != b.any || len(a.structures) != len(b.structures) {
		return false
	}
	for i, s := range a.structures {
		if !s.Equal(b.structures[i]) {
			return false
		}
	}
	return true
}

// IsAlwaysCompatible reports whether every format in a is accepted by b,
// which is the check performed when a fixed output is pushed into a peer.
func IsAlwaysCompatible(a, b *Caps) bool {
	return IsSubset(a, b)
}

func cloneStructures(ss []*Structure) []*Structure {
	out := make([]*Structure, len(ss))
	for i, s := range ss {
		out[i] = s.Copy()
	}
	return out
}
