// Package caps implements capability sets: ordered lists of format
// descriptors (Structures) with a set algebra used to negotiate a common
// format between two connected elements.
//
// A Caps is either ANY, EMPTY, or a list of Structures in preference order.
// Each Structure names a media type and constrains it with fields whose
// values come from package value: fixed scalars, ranges, lists of
// alternatives and arrays.
//
// The algebra:
//
//	Intersect   formats accepted by both sides, zig-zag or first-side order
//	Subtract    formats in one set but not the other
//	Union       formats in either set, simplified
//	IsSubset    every format of one set is in the other
//	IsEqual     same formats regardless of how they are split
//	Simplify    shorter equivalent list
//	Normalize   expand list fields into one structure per alternative
//	Fixate      pick a single concrete format
//
// Caps values are shared by reference and never mutated by the algebra.
// To change one, take a Writable with MakeWritable, modify it, and Seal it
// again.
package caps
