package caps

import (
	"github.com/roach88/capnego/internal/symbol"
	"github.com/roach88/capnego/internal/value"
)

// Fixate returns a Caps describing exactly one format: the first structure
// with every field reduced to a fixed representative. ANY and EMPTY cannot
// be fixated and are returned as new references.
func Fixate(c *Caps) *Caps {
	if c.any || c.IsEmpty() {
		return c.Ref()
	}
	w := MakeWritable(c.Ref())
	w.Fixate()
	return w.Seal()
}

// Fixate truncates to the first structure and fixates its fields.
func (w *Writable) Fixate() {
	c := w.caps()
	if c.any || len(c.structures) == 0 {
		return
	}
	w.Truncate()
	c.structures[0].fixate()
}

// FixateField reduces the named field to a fixed value, reporting whether
// the field exists.
func (s *Structure) FixateField(name string) bool {
	return s.fixateWith(name, func(v value.Value) (value.Value, bool) {
		return value.Fixate(v), true
	})
}

// FixateFieldNearestInt sets the named field to the integer it allows that
// is closest to target.
func (s *Structure) FixateFieldNearestInt(name string, target int64) bool {
	return s.fixateWith(name, func(v value.Value) (value.Value, bool) {
		return value.FixateNearestInt(v, target)
	})
}

// FixateFieldNearestDouble sets the named field to the double it allows
// that is closest to target.
func (s *Structure) FixateFieldNearestDouble(name string, target float64) bool {
	return s.fixateWith(name, func(v value.Value) (value.Value, bool) {
		return value.FixateNearestDouble(v, target)
	})
}

// FixateFieldNearestFraction sets the named field to the fraction it allows
// that is closest to num/den.
func (s *Structure) FixateFieldNearestFraction(name string, num, den int64) bool {
	target := value.NewFraction(num, den)
	return s.fixateWith(name, func(v value.Value) (value.Value, bool) {
		return value.FixateNearestFraction(v, target)
	})
}

// FixateFieldString sets the named field to target if the field allows it.
func (s *Structure) FixateFieldString(name, target string) bool {
	return s.fixateWith(name, func(v value.Value) (value.Value, bool) {
		if _, ok := value.Intersect(v, value.String(target)); !ok {
			return nil, false
		}
		return value.String(target), true
	})
}

// FixateFieldBool sets the named field to target if the field allows it.
func (s *Structure) FixateFieldBool(name string, target bool) bool {
	return s.fixateWith(name, func(v value.Value) (value.Value, bool) {
		if _, ok := value.Intersect(v, value.Bool(target)); !ok {
			return nil, false
		}
		return value.Bool(target), true
	})
}

func (s *Structure) fixateWith(name string, fix func(value.Value) (value.Value, bool)) bool {
	s.checkWritable()
	sym, ok := symbol.Lookup(name)
	if !ok {
		return false
	}
	v, ok := s.get(sym)
	if !ok {
		return false
	}
	fixed, ok := fix(v)
	if !ok {
		return false
	}
	s.set(sym, fixed)
	return true
}
