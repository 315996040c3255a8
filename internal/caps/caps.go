package caps

import (
	"iter"
	"math"
	"strings"
	"sync/atomic"

	"github.com/roach88/capnego/internal/value"
)

// writeLock is the reference count of a Caps held through a Writable.
// Ref, Unref and MakeWritable all fail on it, so a Caps can never be shared
// and mutated at the same time.
const writeLock int32 = math.MinInt32

// Caps is a reference-counted, copy-on-write set of Structures, or the
// special set ANY. A Caps with no structures and no ANY flag is EMPTY.
//
// A *Caps is a shared, read-only handle: every algebra operation takes and
// returns *Caps and never mutates its inputs. To modify a Caps, convert it
// to a *Writable with MakeWritable, which copies the structures unless the
// caller holds the only reference.
type Caps struct {
	refs       atomic.Int32
	any        bool
	structures []*Structure
}

// NewEmpty returns a Caps that matches nothing.
func NewEmpty() *Caps {
	c := &Caps{}
	c.refs.Store(1)
	return c
}

// NewAny returns a Caps that matches everything.
func NewAny() *Caps {
	c := NewEmpty()
	c.any = true
	return c
}

// New returns a Caps owning the given structures. Panics if a structure
// already belongs to another Caps.
func New(structures ...*Structure) *Caps {
	w := NewWritable()
	for _, s := range structures {
		w.Append(s)
	}
	return w.Seal()
}

// NewSimple returns a Caps with a single structure.
func NewSimple(name string, fields ...Field) *Caps {
	return New(NewStructure(name, fields...))
}

// Ref takes another reference to c and returns it. Panics if c has already
// been released or is held through a Writable.
func (c *Caps) Ref() *Caps {
	for {
		n := c.refs.Load()
		if n <= 0 {
			panic("caps: Ref on released or write-locked caps")
		}
		if c.refs.CompareAndSwap(n, n+1) {
			return c
		}
	}
}

// Unref drops a reference. Releasing the last reference detaches the
// structures. Dropping a handle without calling Unref is safe; the count
// only decides whether MakeWritable can reuse c in place.
func (c *Caps) Unref() {
	for {
		n := c.refs.Load()
		if n <= 0 {
			panic("caps: Unref on released or write-locked caps")
		}
		if c.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				c.release()
			}
			return
		}
	}
}

// RefCount returns the number of references. A Caps held through a
// Writable reports 1.
func (c *Caps) RefCount() int {
	n := c.refs.Load()
	if n == writeLock {
		return 1
	}
	return int(n)
}

func (c *Caps) writeLocked() bool {
	return c.refs.Load() == writeLock
}

func (c *Caps) release() {
	for _, s := range c.structures {
		s.owner = nil
	}
	c.structures = nil
}

// IsAny reports whether c matches every format.
func (c *Caps) IsAny() bool {
	return c.any
}

// IsEmpty reports whether c matches no format.
func (c *Caps) IsEmpty() bool {
	return !c.any && len(c.structures) == 0
}

// IsFixed reports whether c describes exactly one format: a single
// structure whose fields are all fixed.
func (c *Caps) IsFixed() bool {
	return !c.any && len(c.structures) == 1 && c.structures[0].IsFixed()
}

// Size returns the number of structures.
func (c *Caps) Size() int {
	return len(c.structures)
}

// Structure returns the i-th structure. The result must not be modified.
func (c *Caps) Structure(i int) (*Structure, bool) {
	if i < 0 || i >= len(c.structures) {
		return nil, false
	}
	return c.structures[i], true
}

// All iterates over the structures in order.
func (c *Caps) All() iter.Seq2[int, *Structure] {
	return func(yield func(int, *Structure) bool) {
		for i, s := range c.structures {
			if !yield(i, s) {
				return
			}
		}
	}
}

// String returns the text form: "ANY", "EMPTY", or structures separated
// by "; ".
func (c *Caps) String() string {
	if c.any {
		return "ANY"
	}
	if len(c.structures) == 0 {
		return "EMPTY"
	}
	var b strings.Builder
	for i, s := range c.structures {
		if i > 0 {
			b.WriteString("; ")
		}
		writeStructure(&b, s)
	}
	return b.String()
}

// clone returns a deep copy with its own structures and one reference.
func (c *Caps) clone() *Caps {
	out := NewEmpty()
	out.any = c.any
	out.structures = make([]*Structure, len(c.structures))
	for i, s := range c.structures {
		cp := s.Copy()
		cp.owner = out
		out.structures[i] = cp
	}
	return out
}

// Copy returns a private deep copy of c regardless of its reference count.
func Copy(c *Caps) *Caps {
	return c.clone()
}

// CopyNth returns a new Caps holding a copy of the i-th structure only.
// An index out of range yields EMPTY.
func CopyNth(c *Caps, i int) *Caps {
	s, ok := c.Structure(i)
	if !ok {
		return NewEmpty()
	}
	return New(s.Copy())
}

// Writable is the unique, mutable handle to a Caps. It is obtained from
// MakeWritable or NewWritable and turned back into a shared *Caps by Seal.
// A Writable must not be used from more than one goroutine at a time.
type Writable struct {
	c *Caps
}

// NewWritable returns a Writable for a new, empty Caps.
func NewWritable() *Writable {
	c := &Caps{}
	c.refs.Store(writeLock)
	return &Writable{c: c}
}

// MakeWritable consumes the caller's reference to c and returns a unique
// handle. If the caller held the only reference, c itself is reused;
// otherwise the structures are deep-copied and c's count is decremented.
func MakeWritable(c *Caps) *Writable {
	if c.refs.CompareAndSwap(1, writeLock) {
		return &Writable{c: c}
	}
	cp := c.clone()
	cp.refs.Store(writeLock)
	c.Unref()
	return &Writable{c: cp}
}

func (w *Writable) caps() *Caps {
	if w.c == nil {
		panic("caps: use of sealed Writable")
	}
	return w.c
}

// Seal returns the Caps as a shared handle with one reference. The
// Writable must not be used afterwards.
func (w *Writable) Seal() *Caps {
	c := w.caps()
	w.c = nil
	c.refs.Store(1)
	return c
}

// IsAny reports whether the Caps under construction matches everything.
func (w *Writable) IsAny() bool { return w.caps().any }

// IsEmpty reports whether the Caps under construction matches nothing.
func (w *Writable) IsEmpty() bool { return w.caps().IsEmpty() }

// Size returns the number of structures.
func (w *Writable) Size() int { return len(w.caps().structures) }

// Structure returns the i-th structure, which may be modified in place.
func (w *Writable) Structure(i int) (*Structure, bool) { return w.caps().Structure(i) }

// String returns the text form.
func (w *Writable) String() string { return w.caps().String() }

// Append takes ownership of s and adds it at the end. Appending to ANY
// discards s. Panics if s already belongs to a Caps.
func (w *Writable) Append(s *Structure) {
	c := w.caps()
	if s.owner != nil {
		panic("caps: structure already belongs to a caps")
	}
	if c.any {
		return
	}
	s.owner = c
	c.structures = append(c.structures, s)
}

// AppendCaps adds copies of other's structures. Appending ANY turns the
// Caps into ANY.
func (w *Writable) AppendCaps(other *Caps) {
	c := w.caps()
	if other.any {
		w.setAny()
		return
	}
	if c.any {
		return
	}
	for _, s := range other.structures {
		w.Append(s.Copy())
	}
}

// Merge appends s unless an existing structure already expresses it.
func (w *Writable) Merge(s *Structure) {
	c := w.caps()
	if c.any {
		return
	}
	for i := len(c.structures) - 1; i >= 0; i-- {
		if IsSubsetStructure(s, c.structures[i]) {
			return
		}
	}
	w.Append(s)
}

// MergeCaps merges copies of other's structures one by one. Merging ANY
// turns the Caps into ANY.
func (w *Writable) MergeCaps(other *Caps) {
	if other.any {
		w.setAny()
		return
	}
	for _, s := range other.structures {
		w.Merge(s.Copy())
	}
}

func (w *Writable) setAny() {
	c := w.caps()
	c.release()
	c.any = true
}

// Remove deletes the i-th structure, reporting whether it existed.
func (w *Writable) Remove(i int) bool {
	c := w.caps()
	if i < 0 || i >= len(c.structures) {
		return false
	}
	c.structures[i].owner = nil
	c.structures = append(c.structures[:i], c.structures[i+1:]...)
	return true
}

// Truncate keeps only the first structure.
func (w *Writable) Truncate() {
	c := w.caps()
	if len(c.structures) <= 1 {
		return
	}
	for _, s := range c.structures[1:] {
		s.owner = nil
	}
	c.structures = c.structures[:1]
}

// SetValue sets a field on every structure.
func (w *Writable) SetValue(field string, v value.Value) {
	for _, s := range w.caps().structures {
		s.Set(field, v)
	}
}
