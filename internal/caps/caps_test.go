package caps

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/capnego/internal/value"
)

const (
	audioSrc  = "audio/x-raw, format=(string){ S16LE, F32LE }, rate=(int)[ 8000, 96000 ], channels=(int)[ 1, 2 ]"
	audioSink = "audio/x-raw, format=(string)S16LE, rate=(int)44100, channels=(int)2"
)

func TestIntersect_AudioFormats(t *testing.T) {
	got := Intersect(MustParse(audioSrc), MustParse(audioSink))

	require.Equal(t, 1, got.Size())
	assert.True(t, got.IsFixed())
	assert.Equal(t, "audio/x-raw, format=(string)S16LE, rate=(int)44100, channels=(int)2", got.String())

	s, _ := got.Structure(0)
	rate, ok := s.Get("rate")
	require.True(t, ok)
	assert.Equal(t, value.Int(44100), rate)
}

func TestIntersect_IncompatibleNames(t *testing.T) {
	a := MustParse("audio/x-raw, rate=(int)44100")
	b := MustParse("video/x-raw, width=(int)640")

	assert.True(t, Intersect(a, b).IsEmpty())
	assert.False(t, CanIntersect(a, b))
}

func TestIntersect_Order(t *testing.T) {
	a := MustParse("A; B")
	b := MustParse("B; A")

	assert.Equal(t, "B; A", IntersectFull(a, b, ZigZag).String())
	assert.Equal(t, "A; B", IntersectFull(a, b, First).String())
}

func TestIntersect_DropsCoveredStructures(t *testing.T) {
	a := MustParse("x, a=(int)1; x, a=(int)1, b=(int)2")
	b := MustParse("x")

	got := Intersect(a, b)
	assert.Equal(t, "x, a=(int)1", got.String())
}

func TestIntersect_Shortcuts(t *testing.T) {
	x := MustParse(audioSrc)

	same := Intersect(x, x)
	assert.Same(t, x, same)
	assert.Equal(t, 2, x.RefCount())

	assert.Same(t, x, Intersect(x, NewAny()))
	assert.Same(t, x, Intersect(NewAny(), x))
	assert.True(t, Intersect(x, NewEmpty()).IsEmpty())
	assert.True(t, Intersect(NewAny(), NewAny()).IsAny())
}

func TestZigzag(t *testing.T) {
	// 4 columns of a, 3 rows of b; numbers give the visit order.
	want := [3][4]int{
		{1, 2, 4, 7},
		{3, 5, 8, 10},
		{6, 9, 11, 12},
	}
	var got [3][4]int
	n := 0
	for j, k := range zigzag(4, 3) {
		n++
		got[k][j] = n
	}
	assert.Equal(t, want, got)

	n = 0
	for range zigzag(0, 3) {
		n++
	}
	assert.Zero(t, n)
}

func TestCanIntersect_MatchesIntersect(t *testing.T) {
	pairs := [][2]string{
		{audioSrc, audioSink},
		{audioSrc, "audio/x-raw, rate=(int)192000"},
		{"video/x-raw, width=(int)[ 1, 100 ]", "video/x-raw, width=(int){ 200, 50 }"},
		{"video/x-raw", "audio/x-raw; video/x-raw, height=(int)2"},
		{"ANY", "EMPTY"},
		{"ANY", "video/x-raw"},
	}
	for _, p := range pairs {
		t.Run(p[0]+" & "+p[1], func(t *testing.T) {
			a, b := MustParse(p[0]), MustParse(p[1])
			assert.Equal(t, !Intersect(a, b).IsEmpty(), CanIntersect(a, b))
		})
	}
}

func TestIntersect_Commutative(t *testing.T) {
	pairs := [][2]string{
		{audioSrc, audioSink},
		{"video/x-raw, width=(int)[ 1, 100 ]", "video/x-raw, width=(int)[ 50, 200 ], height=(int)10"},
		{"video/x-raw, format=(string){ I420, NV12 }; video/x-bayer", "video/x-raw, format=(string){ NV12, RGBA }"},
	}
	for _, p := range pairs {
		t.Run(p[0], func(t *testing.T) {
			a, b := MustParse(p[0]), MustParse(p[1])
			assert.True(t, IsEqual(Intersect(a, b), Intersect(b, a)))
		})
	}
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name       string
		minuend    string
		subtrahend string
		want       string
	}{
		{"partial range", "audio/x-raw, channels=(int)[ 1, 2 ]", "audio/x-raw, channels=(int)2", "audio/x-raw, channels=(int)1"},
		{"removes all", "x, a=(int)640", "x, a=(int)[ 1, 1920 ]", "EMPTY"},
		{"other name kept", "x, a=(int)1; y", "y", "x, a=(int)1"},
		{"unconstrained field keeps minuend", "x, a=(int)1", "x, b=(int)2", "x, a=(int)1"},
		{"subtrahend empty", "x", "EMPTY", "x"},
		{"subtrahend any", "x", "ANY", "EMPTY"},
		{"minuend empty", "EMPTY", "x", "EMPTY"},
		{"minuend any", "ANY", "x", "ANY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subtract(MustParse(tt.minuend), MustParse(tt.subtrahend))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestIntersect_SharesShortcutResults(t *testing.T) {
	a := MustParse("audio/x-raw, rate=(int)[ 8000, 96000 ]")
	anyCaps := NewAny()
	empty := NewEmpty()

	for name, got := range map[string]*Caps{
		"identical":   Intersect(a, a),
		"any right":   Intersect(a, anyCaps),
		"any left":    Intersect(anyCaps, a),
		"union empty": Union(a, empty),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Same(t, a, got)
		})
	}
	assert.Equal(t, 5, a.RefCount())

	w := MakeWritable(Intersect(a, a))
	w.Append(NewStructure("video/x-raw"))
	assert.Equal(t, 2, w.Size())
	assert.Equal(t, "audio/x-raw, rate=(int)[ 8000, 96000 ]", a.String())
}

func TestSubtractStructure(t *testing.T) {
	tests := []struct {
		name       string
		minuend    string
		subtrahend string
		covers     bool
		want       []string
	}{
		{
			name:       "one residual per partially removed field",
			minuend:    "x, a=(int)[ 1, 4 ], b=(int)[ 1, 4 ]",
			subtrahend: "x, a=(int)[ 3, 4 ], b=(int)[ 3, 4 ]",
			covers:     true,
			want:       []string{"x, a=(int)[ 1, 2 ], b=(int)[ 1, 4 ]", "x, a=(int)[ 1, 4 ], b=(int)[ 1, 2 ]"},
		},
		{
			name:       "fully removed field adds no residual",
			minuend:    "audio/x-raw, rate=(int)44100, channels=(int)[ 1, 2 ]",
			subtrahend: "audio/x-raw, rate=(int)[ 44100, 48000 ], channels=(int)2",
			covers:     true,
			want:       []string{"audio/x-raw, rate=(int)44100, channels=(int)1"},
		},
		{
			name:       "wholly contained",
			minuend:    "x, a=(int)2, b=(int)3",
			subtrahend: "x, a=(int)[ 1, 4 ]",
			covers:     true,
			want:       nil,
		},
		{
			name:       "disjoint field keeps minuend",
			minuend:    "x, a=(int)[ 1, 4 ]",
			subtrahend: "x, a=(int)[ 10, 20 ]",
		},
		{
			name:       "field missing from minuend",
			minuend:    "x, a=(int)1",
			subtrahend: "x, b=(int)1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := MustParse(tt.minuend).Structure(0)
			require.True(t, ok)
			s, ok := MustParse(tt.subtrahend).Structure(0)
			require.True(t, ok)

			residuals, ok := subtractStructure(m, s)
			require.Equal(t, tt.covers, ok)
			if !ok {
				return
			}
			var got []string
			for r := range residuals {
				got = append(got, r.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubtract_BranchesExcludeSubtrahend(t *testing.T) {
	m := MustParse("x, a=(int)[ 1, 4 ], b=(int)[ 1, 4 ]")
	s := MustParse("x, a=(int)[ 3, 4 ], b=(int)[ 3, 4 ]")

	got := Subtract(m, s)
	assert.False(t, CanIntersect(got, s))
	assert.True(t, IsSubset(got, m))
	assert.Equal(t, 2, got.Size())
}

func TestAudioScenario(t *testing.T) {
	sink := MustParse("audio/x-raw, rate=(int)[ 44100, 48000 ], channels=(int)2")

	for _, channels := range []string{"(int)[ 1, 2 ]", "(int){ 1, 2 }"} {
		t.Run(channels, func(t *testing.T) {
			src := MustParse("audio/x-raw, rate=(int)44100, channels=" + channels)

			common := Intersect(src, sink)
			require.Equal(t, 1, common.Size())
			assert.True(t, IsEqual(MustParse("audio/x-raw, rate=(int)44100, channels=(int)2"), common), common.String())

			rest := Subtract(src, sink)
			require.Equal(t, 1, rest.Size())
			assert.True(t, IsEqual(MustParse("audio/x-raw, rate=(int)44100, channels=(int)1"), rest), rest.String())
		})
	}
}

func TestSubtract_Self(t *testing.T) {
	for _, text := range []string{audioSrc, audioSink, "video/x-raw; audio/x-raw"} {
		c := MustParse(text)
		assert.True(t, Subtract(c, c).IsEmpty(), text)
	}
}

func TestIsSubset(t *testing.T) {
	tests := []struct {
		sub, super string
		want       bool
	}{
		{"video/x-raw, width=(int)640", "video/x-raw, width=(int)[ 1, 1920 ]", true},
		{"video/x-raw, width=(int)[ 1, 1920 ]", "video/x-raw, width=(int)640", false},
		{"video/x-raw, width=(int)640, height=(int)480", "video/x-raw, width=(int)640", true},
		{"video/x-raw, width=(int)640", "video/x-raw, width=(int)640, height=(int)480", false},
		{"EMPTY", "EMPTY", true},
		{"x", "ANY", true},
		{"ANY", "x", false},
		{"x", "EMPTY", false},
		{audioSink, audioSrc, true},
	}

	for _, tt := range tests {
		t.Run(tt.sub+" <= "+tt.super, func(t *testing.T) {
			sub, super := MustParse(tt.sub), MustParse(tt.super)
			assert.Equal(t, tt.want, IsSubset(sub, super))
			if !sub.IsAny() && !super.IsAny() {
				assert.Equal(t, tt.want, Subtract(sub, super).IsEmpty())
			}
		})
	}
}

func TestIsEqual(t *testing.T) {
	a := MustParse("x, a=(int)[ 1, 10 ]")
	b := MustParse("x, a=(int)[ 1, 5 ]; x, a=(int)[ 6, 10 ]")

	assert.True(t, IsEqual(a, b))
	assert.False(t, IsStrictlyEqual(a, b))

	assert.True(t, IsEqual(MustParse("x, a=(int)1, b=(int)2"), MustParse("x, b=(int)2, a=(int)1")))
	assert.False(t, IsEqual(MustParse("x, a=(int)1"), MustParse("x, a=(int)2")))
	assert.False(t, IsEqual(NewAny(), NewEmpty()))
	assert.True(t, IsEqual(NewAny(), NewAny()))
	assert.True(t, IsAlwaysCompatible(MustParse(audioSink), MustParse(audioSrc)))
}

func TestIdentityLaws(t *testing.T) {
	for _, text := range []string{audioSrc, "video/x-raw, width=(int)[ 1, 100 ]; video/x-bayer"} {
		t.Run(text, func(t *testing.T) {
			x := MustParse(text)
			assert.True(t, IsEqual(Intersect(x, NewAny()), x))
			assert.True(t, Intersect(x, NewEmpty()).IsEmpty())
			assert.True(t, IsEqual(Union(x, NewEmpty()), x))
			assert.True(t, Union(x, NewAny()).IsAny())
			assert.True(t, IsEqual(Subtract(x, NewEmpty()), x))
			assert.True(t, Subtract(x, NewAny()).IsEmpty())
		})
	}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"adjacent ranges merge", "video/x-raw, width=(int)[ 1, 100 ]; video/x-raw, width=(int)[ 50, 200 ]", "video/x-raw, width=(int)[ 1, 200 ]"},
		{"general absorbs specific", "video/x-raw, width=(int)640; video/x-raw", "video/x-raw"},
		{"duplicates", "x, a=(int)1; x, a=(int)1", "x, a=(int)1"},
		{"different names sorted", "y; x", "x; y"},
		{"unmergeable kept", "x, a=(int)1, b=(int)1; x, a=(int)2, b=(int)2", "x, a=(int)1, b=(int)1; x, a=(int)2, b=(int)2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := MustParse(tt.in)
			got := Simplify(in)
			assert.Equal(t, tt.want, got.String())
			assert.True(t, IsEqual(in, got))

			again := Simplify(got)
			assert.True(t, IsStrictlyEqual(got, again))
		})
	}
}

func TestUnion_MergesAlternatives(t *testing.T) {
	got := Union(MustParse("audio/x-raw, format=(string)S16LE"), MustParse("audio/x-raw, format=(string)F32LE"))

	require.Equal(t, 1, got.Size())
	s, _ := got.Structure(0)
	format, ok := s.Get("format")
	require.True(t, ok)
	assert.Equal(t, value.Equal, value.Compare(value.NewList(value.String("S16LE"), value.String("F32LE")), format))
}

func TestNormalize(t *testing.T) {
	got := Normalize(MustParse("video/x-raw, format=(string){ I420, NV12 }, width=(int){ 320, 640 }"))

	assert.Equal(t,
		"video/x-raw, format=(string)I420, width=(int)320; "+
			"video/x-raw, format=(string)I420, width=(int)640; "+
			"video/x-raw, format=(string)NV12, width=(int)320; "+
			"video/x-raw, format=(string)NV12, width=(int)640",
		got.String())
	assert.True(t, Normalize(NewAny()).IsAny())
}

func TestFixate(t *testing.T) {
	in := MustParse("video/x-raw, width=(int)[ 320, 1920 ], format=(string){ NV12, I420 }; video/x-raw, width=(int)1")

	got := Fixate(in)
	assert.True(t, got.IsFixed())
	assert.Equal(t, "video/x-raw, width=(int)320, format=(string)NV12", got.String())
	assert.Equal(t, 2, in.Size(), "input must not change")
	assert.False(t, in.IsFixed())

	assert.True(t, Fixate(NewAny()).IsAny())
	assert.True(t, Fixate(NewEmpty()).IsEmpty())
}

func TestStructure_FixateNearest(t *testing.T) {
	w := MakeWritable(MustParse("video/x-raw, width=(int)[ 320, 1920, 16 ], framerate=(fraction)[ 0/1, 60/1 ], format=(string){ NV12, I420 }"))
	s, ok := w.Structure(0)
	require.True(t, ok)

	assert.True(t, s.FixateFieldNearestInt("width", 1000))
	assert.True(t, s.FixateFieldNearestFraction("framerate", 30, 1))
	assert.True(t, s.FixateFieldString("format", "I420"))
	assert.False(t, s.FixateFieldString("missing", "x"))

	c := w.Seal()
	assert.True(t, c.IsFixed())
	assert.Equal(t, "video/x-raw, width=(int)992, framerate=(fraction)30/1, format=(string)I420", c.String())
}

func TestMakeWritable_CopyOnWrite(t *testing.T) {
	c := MustParse("x, a=(int)1")
	shared := c.Ref()

	w := MakeWritable(shared)
	w.SetValue("a", value.Int(2))
	d := w.Seal()

	assert.NotSame(t, c, d)
	assert.Equal(t, "x, a=(int)1", c.String())
	assert.Equal(t, "x, a=(int)2", d.String())
	assert.Equal(t, 1, c.RefCount())
}

func TestMakeWritable_SoleOwnerReused(t *testing.T) {
	c := MustParse("x, a=(int)1")
	w := MakeWritable(c)

	assert.Panics(t, func() { c.Ref() })
	w.SetValue("a", value.Int(3))

	assert.Same(t, c, w.Seal())
	assert.Equal(t, "x, a=(int)3", c.String())
}

func TestSharedStructure_Immutable(t *testing.T) {
	c := MustParse("x, a=(int)1")
	s, _ := c.Structure(0)

	assert.Panics(t, func() { s.Set("a", value.Int(2)) })
	assert.Panics(t, func() { s.Remove("a") })

	free := s.Copy()
	free.Set("a", value.Int(2))
	assert.Equal(t, "x, a=(int)1", c.String())
}

func TestWritable_SealedPanics(t *testing.T) {
	w := NewWritable()
	w.Append(NewStructure("x"))
	c := w.Seal()

	assert.Panics(t, func() { w.Append(NewStructure("y")) })
	assert.Panics(t, func() { New(c.structures[0]) }, "structure already owned")
}

func TestRefCount_Concurrent(t *testing.T) {
	c := MustParse(audioSrc)

	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := c.Ref()
			_ = Intersect(r, MustParse(audioSink))
			r.Unref()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, c.RefCount())
	c.Unref()
	assert.Panics(t, func() { c.Unref() })
}

func TestWritable_Edit(t *testing.T) {
	w := MakeWritable(MustParse("a; b; c"))

	assert.True(t, w.Remove(1))
	assert.False(t, w.Remove(5))
	assert.Equal(t, "a; c", w.String())

	w.AppendCaps(MustParse("d"))
	w.Merge(NewStructure("a"))
	assert.Equal(t, "a; c; d", w.String())

	w.Truncate()
	assert.Equal(t, "a", w.String())

	w.AppendCaps(NewAny())
	assert.True(t, w.IsAny())
	assert.True(t, w.Seal().IsAny())
}

func TestCopyNth(t *testing.T) {
	c := MustParse("a; b, x=(int)1")

	assert.Equal(t, "b, x=(int)1", CopyNth(c, 1).String())
	assert.True(t, CopyNth(c, 7).IsEmpty())
}

func TestFromString_RoundTrip(t *testing.T) {
	for _, text := range []string{
		audioSrc,
		audioSink,
		"video/x-raw, width=(int)[ 16, 4096, 16 ], framerate=(fraction)[ 0/1, 2147483647/1 ]",
		"video/x-raw, format=(string)I420; video/x-raw, format=(string)NV12",
		`application/x-rtp, encoding-name=(string)"with space"`,
		"ANY",
		"EMPTY",
	} {
		t.Run(text, func(t *testing.T) {
			c := MustParse(text)
			back, err := FromString(c.String())
			require.NoError(t, err)
			assert.True(t, IsStrictlyEqual(c, back), "reparsed as %s", back)
		})
	}
}

func TestFromString_Forms(t *testing.T) {
	assert.True(t, MustParse(" ANY ").IsAny())
	assert.True(t, MustParse("NONE").IsEmpty())
	assert.True(t, MustParse("").IsEmpty())

	c := MustParse("video/x-raw, width=(int)1 audio/x-raw;")
	assert.Equal(t, "video/x-raw, width=(int)1; audio/x-raw", c.String())

	c = MustParse("video/x-raw,width=640,framerate=30/1")
	s, _ := c.Structure(0)
	w, _ := s.Get("width")
	fr, _ := s.Get("framerate")
	assert.Equal(t, value.Int(640), w)
	assert.Equal(t, value.NewFraction(30, 1), fr)
}

func TestFromString_Errors(t *testing.T) {
	tests := []struct {
		text   string
		substr string
	}{
		{"audio/x-raw, rate", "expected '='"},
		{"audio/x-raw, rate=1, rate=2", "duplicate field"},
		{"audio/x-raw, rate=(int)[ 2, 1 ]", "range min"},
		{`audio/x-raw, "rate"=1`, "must not be quoted"},
		{"audio/x-raw, rate=", "expected value"},
		{"(int)1", "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := FromString(tt.text)
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.text, pe.Input)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}
