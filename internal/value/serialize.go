package value

import (
	"fmt"
	"strconv"
	"strings"
)

// builtinTypes maps accepted type names and abbreviations to the canonical
// name used on output.
var builtinTypes = map[string]string{
	"int":      "int",
	"i":        "int",
	"double":   "double",
	"d":        "double",
	"float":    "double",
	"f":        "double",
	"string":   "string",
	"str":      "string",
	"s":        "string",
	"boolean":  "boolean",
	"bool":     "boolean",
	"b":        "boolean",
	"fraction": "fraction",
}

// Serialize returns the text form of v including its type prefix, for
// example "(int)[ 1, 2 ]" or "(string){ S16LE, F32LE }".
func Serialize(v Value) string {
	switch x := v.(type) {
	case List:
		return serializeSeq(x, "{ ", " }")
	case Array:
		return serializeSeq(x, "< ", " >")
	}
	return "(" + TypeName(v) + ")" + serializeBody(v)
}

// serializeSeq writes a list or array. Homogeneous sequences carry one type
// prefix; mixed ones type every element.
func serializeSeq(vals []Value, open, close string) string {
	common := commonType(vals)
	parts := make([]string, len(vals))
	for i, elem := range vals {
		if common != "" {
			parts[i] = serializeBody(elem)
		} else {
			parts[i] = Serialize(elem)
		}
	}
	body := open + strings.Join(parts, ", ") + close
	if common != "" {
		return "(" + common + ")" + body
	}
	return body
}

func commonType(vals []Value) string {
	if len(vals) == 0 {
		return ""
	}
	name := ""
	for _, elem := range vals {
		switch elem.(type) {
		case List, Array:
			return ""
		}
		t := TypeName(elem)
		if name != "" && t != name {
			return ""
		}
		name = t
	}
	return name
}

// serializeBody writes v without its type prefix.
func serializeBody(v Value) string {
	switch x := v.(type) {
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Double:
		return strconv.FormatFloat(float64(x), 'g', -1, 64)
	case String:
		return quoteIfNeeded(string(x))
	case Bool:
		return strconv.FormatBool(bool(x))
	case Fraction:
		return fmt.Sprintf("%d/%d", x.Num, x.Den)
	case IntRange:
		if x.Step != 1 {
			return fmt.Sprintf("[ %d, %d, %d ]", x.Min, x.Max, x.Step)
		}
		return fmt.Sprintf("[ %d, %d ]", x.Min, x.Max)
	case DoubleRange:
		return "[ " + serializeBody(Double(x.Min)) + ", " + serializeBody(Double(x.Max)) + " ]"
	case FractionRange:
		return "[ " + serializeBody(x.Min) + ", " + serializeBody(x.Max) + " ]"
	case List, Array:
		return Serialize(v)
	case Custom:
		return quoteIfNeeded(x.Ext.Serialize())
	}
	return fmt.Sprintf("%v", v)
}

func isSimpleChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '_' || c == '-' || c == '+' || c == '/' || c == ':' || c == '.'
}

// IsSimpleString reports whether s can be written without quotes.
func IsSimpleString(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isSimpleChar(s[i]) {
			return false
		}
	}
	return true
}

// Quote returns s unchanged when it is a simple string, otherwise a
// double-quoted form with backslash escapes.
func Quote(s string) string {
	return quoteIfNeeded(s)
}

func quoteIfNeeded(s string) string {
	if IsSimpleString(s) {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// SyntaxError reports malformed value text.
type SyntaxError struct {
	Message string
	Offset  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Message, e.Offset)
}

// Parse decodes a single value. Surrounding whitespace is allowed; any
// other trailing text is an error.
func Parse(text string) (Value, error) {
	s := NewScanner(text)
	v, err := s.Value()
	if err != nil {
		return nil, err
	}
	if !s.Done() {
		return nil, s.Errorf("unexpected %q after value", s.src[s.pos:])
	}
	return v, nil
}

// Scanner reads values and tokens from text. It is shared with the caps
// parser, which drives it through the descriptor grammar.
type Scanner struct {
	src string
	pos int
}

// NewScanner creates a scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// Offset returns the current byte offset.
func (s *Scanner) Offset() int {
	return s.pos
}

// Errorf returns a SyntaxError at the current offset.
func (s *Scanner) Errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Offset: s.pos}
}

// SkipSpace advances past ASCII whitespace.
func (s *Scanner) SkipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

// Done reports whether only whitespace remains.
func (s *Scanner) Done() bool {
	s.SkipSpace()
	return s.pos >= len(s.src)
}

// Peek returns the next non-space byte without consuming it.
func (s *Scanner) Peek() (byte, bool) {
	s.SkipSpace()
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

// Accept consumes c if it is the next non-space byte.
func (s *Scanner) Accept(c byte) bool {
	if next, ok := s.Peek(); ok && next == c {
		s.pos++
		return true
	}
	return false
}

// Token reads a bare word or a double-quoted string. The second result
// reports whether the token was quoted.
func (s *Scanner) Token() (string, bool, error) {
	c, ok := s.Peek()
	if !ok {
		return "", false, s.Errorf("unexpected end of input")
	}
	if c == '"' {
		str, err := s.quoted()
		return str, true, err
	}
	start := s.pos
	for s.pos < len(s.src) && isSimpleChar(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return "", false, s.Errorf("unexpected %q", string(c))
	}
	return s.src[start:s.pos], false, nil
}

func (s *Scanner) quoted() (string, error) {
	start := s.pos
	s.pos++ // opening quote
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case '"':
			s.pos++
			return b.String(), nil
		case '\\':
			s.pos++
			if s.pos >= len(s.src) {
				break
			}
			switch e := s.src[s.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
		s.pos++
	}
	return "", &SyntaxError{Message: "unterminated string", Offset: start}
}

// Value reads a value with an optional "(type)" prefix.
func (s *Scanner) Value() (Value, error) {
	typ, err := s.typePrefix()
	if err != nil {
		return nil, err
	}
	return s.typedValue(typ)
}

// typePrefix reads "(name)" if present and resolves it to a canonical
// built-in name or a registered custom type name.
func (s *Scanner) typePrefix() (string, error) {
	if !s.Accept('(') {
		return "", nil
	}
	start := s.pos
	name, _, err := s.Token()
	if err != nil {
		return "", err
	}
	if !s.Accept(')') {
		return "", s.Errorf("expected ')' after type name")
	}
	if canon, ok := builtinTypes[name]; ok {
		return canon, nil
	}
	if _, ok := lookupType(name); ok {
		return name, nil
	}
	return "", &SyntaxError{Message: fmt.Sprintf("unknown type %q", name), Offset: start}
}

func (s *Scanner) typedValue(typ string) (Value, error) {
	c, ok := s.Peek()
	if !ok {
		return nil, s.Errorf("expected value")
	}
	switch c {
	case '[':
		return s.rangeValue(typ)
	case '{':
		vals, err := s.sequence('{', '}', typ)
		if err != nil {
			return nil, err
		}
		return List(vals), nil
	case '<':
		vals, err := s.sequence('<', '>', typ)
		if err != nil {
			return nil, err
		}
		return Array(vals), nil
	}
	start := s.pos
	tok, quoted, err := s.Token()
	if err != nil {
		return nil, err
	}
	v, err := convertScalar(tok, quoted, typ)
	if err != nil {
		return nil, &SyntaxError{Message: err.Error(), Offset: start}
	}
	return v, nil
}

// element reads one sequence element; its own prefix overrides typ.
func (s *Scanner) element(typ string) (Value, error) {
	own, err := s.typePrefix()
	if err != nil {
		return nil, err
	}
	if own != "" {
		typ = own
	}
	return s.typedValue(typ)
}

func (s *Scanner) sequence(open, close byte, typ string) ([]Value, error) {
	s.Accept(open)
	vals := []Value{}
	if s.Accept(close) {
		return vals, nil
	}
	for {
		v, err := s.element(typ)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if s.Accept(close) {
			return vals, nil
		}
		if !s.Accept(',') {
			return nil, s.Errorf("expected ',' or '%c'", close)
		}
	}
}

func (s *Scanner) rangeValue(typ string) (Value, error) {
	start := s.pos
	vals, err := s.sequence('[', ']', typ)
	if err != nil {
		return nil, err
	}
	v, err := buildRange(vals)
	if err != nil {
		return nil, &SyntaxError{Message: err.Error(), Offset: start}
	}
	return v, nil
}

func buildRange(vals []Value) (Value, error) {
	if len(vals) != 2 && len(vals) != 3 {
		return nil, fmt.Errorf("range needs 2 or 3 elements, got %d", len(vals))
	}
	lo, hi := vals[0], vals[1]
	if len(vals) == 3 {
		a, aok := lo.(Int)
		b, bok := hi.(Int)
		step, sok := vals[2].(Int)
		if !aok || !bok || !sok {
			return nil, fmt.Errorf("stepped range requires integers")
		}
		return intRange(int64(a), int64(b), int64(step))
	}

	switch a := lo.(type) {
	case Int:
		switch b := hi.(type) {
		case Int:
			return intRange(int64(a), int64(b), 1)
		case Double:
			return doubleRange(float64(a), float64(b))
		case Fraction:
			return fractionRange(NewFraction(int64(a), 1), b)
		}
	case Double:
		switch b := hi.(type) {
		case Double:
			return doubleRange(float64(a), float64(b))
		case Int:
			return doubleRange(float64(a), float64(b))
		}
	case Fraction:
		switch b := hi.(type) {
		case Fraction:
			return fractionRange(a, b)
		case Int:
			return fractionRange(a, NewFraction(int64(b), 1))
		}
	}
	return nil, fmt.Errorf("range bounds must be numbers of one kind")
}

func intRange(lo, hi, step int64) (Value, error) {
	if step <= 0 {
		return nil, fmt.Errorf("range step must be positive")
	}
	if lo%step != 0 || hi%step != 0 {
		return nil, fmt.Errorf("range bounds must be multiples of the step")
	}
	if lo >= hi {
		return nil, fmt.Errorf("range min must be less than max")
	}
	return IntRange{Min: lo, Max: hi, Step: step}, nil
}

func doubleRange(lo, hi float64) (Value, error) {
	if !(lo < hi) {
		return nil, fmt.Errorf("range min must be less than max")
	}
	return DoubleRange{Min: lo, Max: hi}, nil
}

func fractionRange(lo, hi Fraction) (Value, error) {
	if cmpFraction(lo, hi) >= 0 {
		return nil, fmt.Errorf("range min must be less than max")
	}
	return FractionRange{Min: lo, Max: hi}, nil
}

func convertScalar(tok string, quoted bool, typ string) (Value, error) {
	switch typ {
	case "int":
		n, err := strconv.ParseInt(tok, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q", tok)
		}
		return Int(n), nil
	case "double":
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid double %q", tok)
		}
		return Double(f), nil
	case "fraction":
		f, ok := parseFraction(tok)
		if !ok {
			if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
				return NewFraction(n, 1), nil
			}
			return nil, fmt.Errorf("invalid fraction %q", tok)
		}
		return f, nil
	case "boolean":
		switch strings.ToLower(tok) {
		case "true", "yes", "t", "1":
			return Bool(true), nil
		case "false", "no", "f", "0":
			return Bool(false), nil
		}
		return nil, fmt.Errorf("invalid boolean %q", tok)
	case "string":
		return String(tok), nil
	case "":
		if quoted {
			return String(tok), nil
		}
		return inferScalar(tok), nil
	}

	parse, ok := lookupType(typ)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", typ)
	}
	ext, err := parse(tok)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", typ, tok, err)
	}
	return Custom{Ext: ext}, nil
}

// inferScalar guesses the kind of an untyped bare word: int, then double,
// then fraction, then boolean, falling back to string.
func inferScalar(tok string) Value {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Int(n)
	}
	if looksNumeric(tok) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return Double(f)
		}
	}
	if f, ok := parseFraction(tok); ok {
		return f
	}
	switch strings.ToLower(tok) {
	case "true", "yes":
		return Bool(true)
	case "false", "no":
		return Bool(false)
	}
	return String(tok)
}

func looksNumeric(tok string) bool {
	digit := false
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= '0' && c <= '9':
			digit = true
		case c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-':
		default:
			return false
		}
	}
	return digit
}

func parseFraction(tok string) (Fraction, bool) {
	num, den, ok := strings.Cut(tok, "/")
	if !ok {
		return Fraction{}, false
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return Fraction{}, false
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil || d == 0 {
		return Fraction{}, false
	}
	return NewFraction(n, d), true
}
