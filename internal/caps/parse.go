package caps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/capnego/internal/symbol"
	"github.com/roach88/capnego/internal/value"
)

// ParseError reports malformed caps text.
type ParseError struct {
	Message string
	Offset  int
	Input   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("caps: %s at offset %d in %q", e.Message, e.Offset, e.Input)
}

// FromString parses the text form produced by String. Structures are
// separated by ';' or whitespace, fields by ','. "ANY", "EMPTY", "NONE" and
// the empty string denote the special sets.
func FromString(text string) (*Caps, error) {
	switch strings.TrimSpace(text) {
	case "ANY":
		return NewAny(), nil
	case "EMPTY", "NONE", "":
		return NewEmpty(), nil
	}

	sc := value.NewScanner(text)
	w := NewWritable()
	for !sc.Done() {
		s, err := parseStructure(sc)
		if err != nil {
			return nil, wrapSyntax(err, text)
		}
		w.Append(s)
		sc.Accept(';')
	}
	return w.Seal(), nil
}

// MustParse is FromString for literals known to be valid. It panics on error.
func MustParse(text string) *Caps {
	c, err := FromString(text)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseStructure parses a single "name, field=value, ..." descriptor.
func ParseStructure(text string) (*Structure, error) {
	sc := value.NewScanner(text)
	s, err := parseStructure(sc)
	if err == nil {
		sc.Accept(';')
		if !sc.Done() {
			err = sc.Errorf("unexpected text after structure")
		}
	}
	if err != nil {
		return nil, wrapSyntax(err, text)
	}
	return s, nil
}

func parseStructure(sc *value.Scanner) (*Structure, error) {
	name, _, err := sc.Token()
	if err != nil {
		return nil, err
	}
	s := &Structure{name: symbol.Intern(name)}
	for sc.Accept(',') {
		at := sc.Offset()
		field, quoted, err := sc.Token()
		if err != nil {
			return nil, err
		}
		if quoted {
			return nil, &value.SyntaxError{Message: "field name must not be quoted", Offset: at}
		}
		if !sc.Accept('=') {
			return nil, sc.Errorf("expected '=' after field %q", field)
		}
		v, err := sc.Value()
		if err != nil {
			return nil, err
		}
		sym := symbol.Intern(field)
		if _, dup := s.get(sym); dup {
			return nil, &value.SyntaxError{Message: fmt.Sprintf("duplicate field %q", field), Offset: at}
		}
		s.fields = append(s.fields, Field{Name: sym, Value: v})
	}
	return s, nil
}

func wrapSyntax(err error, input string) error {
	var syn *value.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{Message: syn.Message, Offset: syn.Offset, Input: input}
	}
	return &ParseError{Message: err.Error(), Input: input}
}
