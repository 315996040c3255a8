package caps

import (
	"slices"
	"strings"

	"github.com/roach88/capnego/internal/value"
)

// Union returns the formats in a or b, simplified.
func Union(a, b *Caps) *Caps {
	if a.any || b.any {
		return NewAny()
	}
	if a.IsEmpty() {
		return b.Ref()
	}
	if b.IsEmpty() {
		return a.Ref()
	}
	w := NewWritable()
	w.AppendCaps(a)
	w.AppendCaps(b)
	w.Simplify()
	return w.Seal()
}

// Simplify returns an equivalent Caps with redundant structures removed
// and mergeable structures combined.
func Simplify(c *Caps) *Caps {
	if c.any {
		return c.Ref()
	}
	w := NewWritable()
	w.AppendCaps(c)
	w.Simplify()
	return w.Seal()
}

// Simplify rewrites the structures in place into an equivalent, usually
// shorter list. Structures are grouped by name, larger structures first.
// Within a group each structure is subtracted from its neighbours, and two
// structures that differ in a single field are merged into one whose field
// holds the union. Passes repeat until nothing changes.
//
// Simplify reorders structures, so it discards preference order.
func (w *Writable) Simplify() {
	c := w.caps()
	if c.any || len(c.structures) < 2 {
		return
	}
	slices.SortStableFunc(c.structures, func(a, b *Structure) int {
		if n := strings.Compare(a.Name(), b.Name()); n != 0 {
			return n
		}
		return len(b.fields) - len(a.fields)
	})

	limit := len(c.structures)*len(c.structures) + 1
	for range limit {
		if !w.simplifyPass() {
			return
		}
	}
}

func (w *Writable) simplifyPass() bool {
	c := w.caps()
	changed := false
	start := len(c.structures) - 1
	for i := len(c.structures) - 1; i >= 0; i-- {
		simp := c.structures[i]
		if start >= len(c.structures) || simp.name != c.structures[start].name {
			start = i
		}
		for j := start; j >= 0; j-- {
			if j == i {
				continue
			}
			cmp := c.structures[j]
			if cmp.name != simp.name {
				break
			}
			repl, removed, ok := simplifyStructure(simp, cmp)
			if !ok {
				continue
			}
			changed = true
			if removed {
				w.Remove(i)
				start--
				break
			}
			simp.owner = nil
			repl.owner = c
			c.structures[i] = repl
			simp = repl
		}
	}
	return changed
}

// simplifyStructure tries to absorb simp into cmp. It returns removed when
// simp can be dropped, or a replacement for simp when subtracting cmp
// leaves a single residual. cmp may be widened in place.
func simplifyStructure(simp, cmp *Structure) (repl *Structure, removed, ok bool) {
	if residuals, ok := subtractStructure(simp, cmp); ok {
		var rs []*Structure
		for r := range residuals {
			rs = append(rs, r)
			if len(rs) > 1 {
				break
			}
		}
		switch len(rs) {
		case 0:
			return nil, true, true
		case 1:
			return rs[0], false, true
		}
	}

	if len(simp.fields) != len(cmp.fields) {
		return nil, false, false
	}
	diff := -1
	var merged value.Value
	for _, f := range simp.fields {
		cv, ok := cmp.get(f.Name)
		if !ok {
			return nil, false, false
		}
		if value.Compare(f.Value, cv) == value.Equal {
			continue
		}
		if diff >= 0 {
			return nil, false, false
		}
		u, ok := value.Union(f.Value, cv)
		if !ok {
			return nil, false, false
		}
		diff = int(f.Name)
		merged = u
	}
	if diff < 0 {
		return nil, true, true
	}
	for i := range cmp.fields {
		if int(cmp.fields[i].Name) == diff {
			cmp.fields[i].Value = merged
		}
	}
	return nil, true, true
}

// Normalize returns an equivalent Caps in which no field holds a list:
// every structure is expanded into the cartesian product of its list
// alternatives.
func Normalize(c *Caps) *Caps {
	if c.any {
		return c.Ref()
	}
	w := NewWritable()
	for _, s := range c.structures {
		for _, n := range normalizeStructure(s) {
			w.Append(n)
		}
	}
	return w.Seal()
}

func normalizeStructure(s *Structure) []*Structure {
	out := []*Structure{s.Copy()}
	for i, f := range s.fields {
		l, ok := f.Value.(value.List)
		if !ok || len(l) == 0 {
			continue
		}
		next := make([]*Structure, 0, len(out)*len(l))
		for _, o := range out {
			for _, alt := range l {
				cp := o.Copy()
				cp.fields[i].Value = alt
				next = append(next, cp)
			}
		}
		out = next
	}
	return out
}
