package value

import (
	"fmt"
	"sync"
)

// Extension is the plug-in point for value types the built-in kinds do not
// model. Only Equal and Serialize are required; the optional interfaces
// below opt a type into more of the algebra. Without them a custom value
// behaves like an opaque scalar: it intersects only with an equal value
// and unions into a list.
type Extension interface {
	// TypeName is the name used in the text form, e.g. "(bitmask)0x3".
	TypeName() string
	// Equal reports whether two extensions of the same TypeName are equal.
	Equal(other Extension) bool
	// Serialize returns the text form of the value without its type prefix.
	Serialize() string
}

// Orderer is implemented by extensions with a total order.
type Orderer interface {
	Compare(other Extension) Order
}

// Intersector is implemented by extensions that can intersect.
type Intersector interface {
	Intersect(other Extension) (Extension, bool)
}

// Subtractor is implemented by extensions that can subtract.
// It returns false when nothing is left.
type Subtractor interface {
	Subtract(other Extension) (Extension, bool)
}

// Unioner is implemented by extensions that can merge two values into one.
type Unioner interface {
	Union(other Extension) (Extension, bool)
}

// FixedReporter is implemented by extensions that can be non-fixed.
// Extensions that do not implement it are fixed.
type FixedReporter interface {
	IsFixed() bool
}

// Fixater is implemented by non-fixed extensions that can pick a fixed
// representative.
type Fixater interface {
	Fixate() Extension
}

// ParseFunc decodes the text form of a custom value.
type ParseFunc func(text string) (Extension, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ParseFunc{}
)

// RegisterType makes a custom type available to Parse under name.
// Registering a built-in type name or registering the same name twice
// returns an error.
func RegisterType(name string, parse ParseFunc) error {
	if _, ok := builtinTypes[name]; ok {
		return fmt.Errorf("type %q is built in", name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("type %q already registered", name)
	}
	registry[name] = parse
	return nil
}

func lookupType(name string) (ParseFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

func sameExtType(a, b Custom) bool {
	return a.Ext != nil && b.Ext != nil && a.Ext.TypeName() == b.Ext.TypeName()
}
