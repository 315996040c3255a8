package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/capnego/internal/ir"
)

func compileElement(t *testing.T, src, path string) (*ir.ElementSpec, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileElement(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileElementBasic(t *testing.T) {
	spec, err := compileElement(t, `
		element: audioconvert: {
			description: "Convert audio to different formats"
			rank: 128

			pad: sink: {
				direction: "sink"
				caps: "audio/x-raw,format={S16LE,F32LE},rate=[1,2147483647]"
			}
			pad: src: {
				direction: "src"
				presence: "always"
				caps: "audio/x-raw, format=(string){ S16LE, F32LE }, rate=(int)[ 1, 2147483647 ]"
			}
		}
	`, "element.audioconvert")
	require.NoError(t, err)

	assert.Equal(t, "audioconvert", spec.Name)
	assert.Equal(t, "Convert audio to different formats", spec.Description)
	assert.Equal(t, int64(128), spec.Rank)
	require.Len(t, spec.Pads, 2)

	assert.Equal(t, "sink", spec.Pads[0].Name)
	assert.Equal(t, ir.DirectionSink, spec.Pads[0].Direction)
	assert.Equal(t, ir.PresenceAlways, spec.Pads[0].Presence, "presence defaults to always")
	assert.Equal(t, spec.Pads[1].Caps, spec.Pads[0].Caps, "caps are stored canonically")
	assert.Equal(t, "audio/x-raw, format=(string){ S16LE, F32LE }, rate=(int)[ 1, 2147483647 ]", spec.Pads[0].Caps)

	assert.Empty(t, Validate(spec))
}

func TestCompileElementCapsList(t *testing.T) {
	spec, err := compileElement(t, `
		element: "video-mixer": {
			description: "Mix video"
			pad: "sink_%u": {
				direction: "sink"
				presence: "request"
				caps: ["video/x-raw, format=I420", "video/x-raw, format=NV12"]
			}
			pad: src: { direction: "src", caps: "video/x-raw" }
		}
	`, `element."video-mixer"`)
	require.NoError(t, err)

	assert.Equal(t, "video-mixer", spec.Name)
	assert.Equal(t, "sink_%u", spec.Pads[0].Name)
	assert.Equal(t, ir.PresenceRequest, spec.Pads[0].Presence)
	assert.Equal(t, "video/x-raw, format=(string)I420; video/x-raw, format=(string)NV12", spec.Pads[0].Caps)
}

func TestCompileElementMissingDescription(t *testing.T) {
	_, err := compileElement(t, `
		element: bad: {
			pad: src: { direction: "src", caps: "ANY" }
		}
	`, "element.bad")
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "description", compileErr.Field)
}

func TestCompileElementNoPads(t *testing.T) {
	_, err := compileElement(t, `
		element: bad: { description: "no pads" }
	`, "element.bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one pad")
}

func TestCompileElementPadErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing direction", `element: e: { description: "d", pad: p: { caps: "ANY" } }`, "pad.p.direction"},
		{"missing caps", `element: e: { description: "d", pad: p: { direction: "src" } }`, "pad.p.caps"},
		{"caps not a string", `element: e: { description: "d", pad: p: { direction: "src", caps: 3 } }`, "caps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileElement(t, tt.src, "element.e")
			require.Error(t, err)
			var compileErr *CompileError
			require.True(t, errors.As(err, &compileErr))
			assert.Equal(t, tt.field, compileErr.Field)
		})
	}
}

func TestCompileElementKeepsBadCapsForValidation(t *testing.T) {
	spec, err := compileElement(t, `
		element: e: {
			description: "d"
			pad: src: { direction: "src", caps: "audio/x-raw, rate" }
		}
	`, "element.e")
	require.NoError(t, err)
	assert.Equal(t, "audio/x-raw, rate", spec.Pads[0].Caps)

	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrPadCaps, errs[0].Code)
}
