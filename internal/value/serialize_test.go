package value

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(44100), "(int)44100"},
		{Double(0.5), "(double)0.5"},
		{String("S16LE"), "(string)S16LE"},
		{String("hello world"), `(string)"hello world"`},
		{String(`say "hi"`), `(string)"say \"hi\""`},
		{String(""), `(string)""`},
		{Bool(true), "(boolean)true"},
		{NewFraction(30000, 1001), "(fraction)30000/1001"},
		{NewIntRange(1, 2), "(int)[ 1, 2 ]"},
		{NewIntRangeStep(0, 10, 2), "(int)[ 0, 10, 2 ]"},
		{NewDoubleRange(0, 1.5), "(double)[ 0, 1.5 ]"},
		{NewFractionRange(NewFraction(0, 1), NewFraction(60, 1)), "(fraction)[ 0/1, 60/1 ]"},
		{NewList(String("S16LE"), String("F32LE")), "(string){ S16LE, F32LE }"},
		{NewList(Int(1), String("a")), "{ (int)1, (string)a }"},
		{NewArray(Int(1), Int(2)), "(int)< 1, 2 >"},
		{NewList(Int(1), NewIntRange(4, 8)), "(int){ 1, [ 4, 8 ] }"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Serialize(tt.v))
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	vals := []Value{
		Int(-3),
		Double(48000.25),
		String("video/x-raw"),
		String("with space, and comma"),
		Bool(false),
		NewFraction(25, 1),
		NewIntRange(1, 8),
		NewIntRangeStep(16, 4096, 16),
		NewDoubleRange(0.5, 2),
		NewFractionRange(NewFraction(0, 1), NewFraction(2147483647, 1)),
		NewList(String("I420"), String("NV12"), String("RGBA")),
		NewList(Int(1), String("mixed")),
		NewArray(String("front-left"), String("front-right")),
		NewList(NewArray(Int(1), Int(2)), NewArray(Int(3), Int(4))),
		NewList(),
	}

	for _, v := range vals {
		text := Serialize(v)
		t.Run(text, func(t *testing.T) {
			got, err := Parse(text)
			require.NoError(t, err)
			assert.Equal(t, Equal, Compare(v, got), "reparsed as %s", Serialize(got))
		})
	}
}

func TestParse_Inference(t *testing.T) {
	tests := []struct {
		text string
		want Value
	}{
		{"42", Int(42)},
		{"-7", Int(-7)},
		{"2.5", Double(2.5)},
		{"30/1", NewFraction(30, 1)},
		{"true", Bool(true)},
		{"NO", Bool(false)},
		{"S16LE", String("S16LE")},
		{"nan", String("nan")},
		{`"42"`, String("42")},
		{"[ 1, 2 ]", NewIntRange(1, 2)},
		{"[ 0.5, 2 ]", NewDoubleRange(0.5, 2)},
		{"[ 0/1, 30 ]", NewFractionRange(NewFraction(0, 1), NewFraction(30, 1))},
		{"{ 1, 2 }", NewList(Int(1), Int(2))},
		{"(string){ 1, 2 }", NewList(String("1"), String("2"))},
		{"(double)2", Double(2)},
		{"(fraction)25", NewFraction(25, 1)},
		{"(i)0x10", Int(16)},
		{"(b)yes", Bool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		text   string
		substr string
	}{
		{"", "expected value"},
		{"(int)abc", "invalid int"},
		{"(nosuchtype)1", "unknown type"},
		{"[ 2, 1 ]", "range min must be less than max"},
		{"[ 1, 2, 3, 4 ]", "range needs 2 or 3 elements"},
		{"[ 1, 5, 2 ]", "multiples of the step"},
		{"[ a, b ]", "numbers of one kind"},
		{"{ 1, 2", "expected ','"},
		{`"open`, "unterminated string"},
		{"1 2", "after value"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			var syn *SyntaxError
			require.True(t, errors.As(err, &syn))
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

// bitmask is a test extension: a set of bits where intersection and union
// are the bitwise operators.
type bitmask uint64

func (b bitmask) TypeName() string { return "bitmask" }
func (b bitmask) Equal(o Extension) bool {
	other, ok := o.(bitmask)
	return ok && other == b
}
func (b bitmask) Serialize() string { return fmt.Sprintf("0x%x", uint64(b)) }
func (b bitmask) Intersect(o Extension) (Extension, bool) {
	r := b & o.(bitmask)
	return r, r != 0
}
func (b bitmask) Subtract(o Extension) (Extension, bool) {
	r := b &^ o.(bitmask)
	return r, r != 0
}
func (b bitmask) Union(o Extension) (Extension, bool) {
	return b | o.(bitmask), true
}

func parseBitmask(text string) (Extension, error) {
	var n uint64
	if _, err := fmt.Sscanf(strings.ToLower(text), "0x%x", &n); err != nil {
		return nil, err
	}
	return bitmask(n), nil
}

var registerBitmask = sync.OnceValue(func() error {
	return RegisterType("bitmask", parseBitmask)
})

func TestCustomExtension(t *testing.T) {
	require.NoError(t, registerBitmask())
	assert.Error(t, RegisterType("bitmask", parseBitmask))
	assert.Error(t, RegisterType("int", parseBitmask))

	v, err := Parse("(bitmask)0x6")
	require.NoError(t, err)
	assert.Equal(t, Custom{Ext: bitmask(6)}, v)
	assert.Equal(t, "(bitmask)0x6", Serialize(v))

	got, ok := Intersect(v, Custom{Ext: bitmask(3)})
	require.True(t, ok)
	assert.Equal(t, Custom{Ext: bitmask(2)}, got)

	_, ok = Intersect(v, Custom{Ext: bitmask(1)})
	assert.False(t, ok)

	got, ok = Subtract(v, Custom{Ext: bitmask(2)})
	require.True(t, ok)
	assert.Equal(t, Custom{Ext: bitmask(4)}, got)

	got, ok = Union(v, Custom{Ext: bitmask(1)})
	require.True(t, ok)
	assert.Equal(t, Custom{Ext: bitmask(7)}, got)

	assert.Equal(t, Equal, Compare(v, Custom{Ext: bitmask(6)}))
	assert.Equal(t, Unordered, Compare(v, Int(6)))
	assert.True(t, IsFixed(v))
}
