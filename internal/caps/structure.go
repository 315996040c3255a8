package caps

import (
	"iter"
	"slices"
	"strings"

	"github.com/roach88/capnego/internal/symbol"
	"github.com/roach88/capnego/internal/value"
)

// Field is a named value inside a Structure.
type Field struct {
	Name  symbol.Symbol
	Value value.Value
}

// F is shorthand for building a Field from a string name.
// Example: NewStructure("audio/x-raw", F("rate", value.Int(44100)))
func F(name string, v value.Value) Field {
	return Field{Name: symbol.Intern(name), Value: v}
}

// Structure is a format descriptor: a media type name plus ordered fields
// with unique names. Field order is preserved for serialization.
//
// A Structure belongs to at most one Caps. Once appended it may only be
// modified through a Writable; modifying a Structure of a sealed Caps
// panics.
type Structure struct {
	name   symbol.Symbol
	fields []Field
	owner  *Caps
}

// NewStructure creates a free-standing structure. Later fields replace
// earlier fields with the same name.
func NewStructure(name string, fields ...Field) *Structure {
	s := &Structure{name: symbol.Intern(name)}
	for _, f := range fields {
		s.set(f.Name, f.Value)
	}
	return s
}

// Name returns the media type name.
func (s *Structure) Name() string {
	return s.name.String()
}

// NameSymbol returns the interned media type name.
func (s *Structure) NameSymbol() symbol.Symbol {
	return s.name
}

// HasName reports whether the structure's name is name.
func (s *Structure) HasName(name string) bool {
	sym, ok := symbol.Lookup(name)
	return ok && sym == s.name
}

// Len returns the number of fields.
func (s *Structure) Len() int {
	return len(s.fields)
}

// Field returns the i-th field in insertion order.
func (s *Structure) Field(i int) (Field, bool) {
	if i < 0 || i >= len(s.fields) {
		return Field{}, false
	}
	return s.fields[i], true
}

// All iterates over the fields in order.
func (s *Structure) All() iter.Seq[Field] {
	return func(yield func(Field) bool) {
		for _, f := range s.fields {
			if !yield(f) {
				return
			}
		}
	}
}

// Get returns the value of the named field.
func (s *Structure) Get(name string) (value.Value, bool) {
	sym, ok := symbol.Lookup(name)
	if !ok {
		return nil, false
	}
	return s.get(sym)
}

// Has reports whether the named field exists.
func (s *Structure) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

func (s *Structure) get(name symbol.Symbol) (value.Value, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set adds or replaces a field. Panics if the structure belongs to a
// sealed Caps.
func (s *Structure) Set(name string, v value.Value) {
	s.checkWritable()
	s.set(symbol.Intern(name), v)
}

// Remove deletes a field, reporting whether it existed. Panics if the
// structure belongs to a sealed Caps.
func (s *Structure) Remove(name string) bool {
	s.checkWritable()
	sym, ok := symbol.Lookup(name)
	if !ok {
		return false
	}
	i := slices.IndexFunc(s.fields, func(f Field) bool { return f.Name == sym })
	if i < 0 {
		return false
	}
	s.fields = slices.Delete(s.fields, i, i+1)
	return true
}

func (s *Structure) set(name symbol.Symbol, v value.Value) {
	for i := range s.fields {
		if s.fields[i].Name == name {
			s.fields[i].Value = v
			return
		}
	}
	s.fields = append(s.fields, Field{Name: name, Value: v})
}

func (s *Structure) checkWritable() {
	if s.owner != nil && !s.owner.writeLocked() {
		panic("caps: structure modified while its caps is shared; use MakeWritable")
	}
}

// Copy returns a free-standing deep copy. Values are immutable and shared.
func (s *Structure) Copy() *Structure {
	return &Structure{
		name:   s.name,
		fields: slices.Clone(s.fields),
	}
}

// IsFixed reports whether every field holds a fixed value.
func (s *Structure) IsFixed() bool {
	for _, f := range s.fields {
		if !value.IsFixed(f.Value) {
			return false
		}
	}
	return true
}

// Equal reports whether both structures have the same name and the same
// fields with equal values, in any order.
func (s *Structure) Equal(o *Structure) bool {
	if s == o {
		return true
	}
	if s.name != o.name || len(s.fields) != len(o.fields) {
		return false
	}
	for _, f := range s.fields {
		v, ok := o.get(f.Name)
		if !ok || value.Compare(f.Value, v) != value.Equal {
			return false
		}
	}
	return true
}

// String returns the text form "name, field=(type)value, ...".
func (s *Structure) String() string {
	var b strings.Builder
	writeStructure(&b, s)
	return b.String()
}

func writeStructure(b *strings.Builder, s *Structure) {
	b.WriteString(value.Quote(s.name.String()))
	for _, f := range s.fields {
		b.WriteString(", ")
		b.WriteString(f.Name.String())
		b.WriteByte('=')
		b.WriteString(value.Serialize(f.Value))
	}
}

// intersectStructures intersects two descriptors field by field. Fields
// present on one side only are copied; one empty field intersection makes
// the whole result empty.
func intersectStructures(a, b *Structure) (*Structure, bool) {
	if a.name != b.name {
		return nil, false
	}
	out := &Structure{name: a.name, fields: make([]Field, 0, len(a.fields)+len(b.fields))}
	for _, f := range a.fields {
		bv, ok := b.get(f.Name)
		if !ok {
			out.fields = append(out.fields, f)
			continue
		}
		v, ok := value.Intersect(f.Value, bv)
		if !ok {
			return nil, false
		}
		out.fields = append(out.fields, Field{Name: f.Name, Value: v})
	}
	for _, f := range b.fields {
		if _, ok := a.get(f.Name); !ok {
			out.fields = append(out.fields, f)
		}
	}
	return out, true
}

// canIntersectStructures is intersectStructures without building a result.
func canIntersectStructures(a, b *Structure) bool {
	if a.name != b.name {
		return false
	}
	for _, f := range a.fields {
		bv, ok := b.get(f.Name)
		if !ok {
			continue
		}
		if value.Compare(f.Value, bv) == value.Equal {
			continue
		}
		if !value.CanIntersect(f.Value, bv) {
			return false
		}
	}
	return true
}

// IsSubsetStructure reports whether every format sub describes is also
// described by super: the names match, super has no more fields than sub,
// and each of super's fields is present in sub with an equal or strictly
// covered value.
func IsSubsetStructure(sub, super *Structure) bool {
	if sub.name != super.name || len(super.fields) > len(sub.fields) {
		return false
	}
	for _, f := range super.fields {
		v, ok := sub.get(f.Name)
		if !ok {
			return false
		}
		switch value.Compare(f.Value, v) {
		case value.Equal:
			continue
		case value.Unordered:
			if !value.IsSubset(v, f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// subtractStructure removes subtrahend from minuend. It returns false when
// subtrahend does not constrain minuend on some field, which means minuend
// is kept whole. Otherwise the sequence yields one residual descriptor per
// field that was partially removed; an empty sequence means minuend was
// removed entirely. Residuals are copied lazily as the sequence is consumed.
func subtractStructure(minuend, subtrahend *Structure) (iter.Seq[*Structure], bool) {
	var residuals []Field
	for _, f := range subtrahend.fields {
		mv, ok := minuend.get(f.Name)
		if !ok {
			return nil, false
		}
		diff, ok := value.Subtract(mv, f.Value)
		if !ok {
			continue
		}
		if value.Compare(diff, mv) == value.Equal {
			return nil, false
		}
		residuals = append(residuals, Field{Name: f.Name, Value: diff})
	}
	return func(yield func(*Structure) bool) {
		for _, r := range residuals {
			s := minuend.Copy()
			s.set(r.Name, r.Value)
			if !yield(s) {
				return
			}
		}
	}, true
}

// fixate replaces every field by a fixed representative.
func (s *Structure) fixate() {
	for i := range s.fields {
		s.fields[i].Value = value.Fixate(s.fields[i].Value)
	}
}
