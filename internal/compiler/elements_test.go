package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileElements(t *testing.T) {
	v := cuecontext.New().CompileString(`
		element: audiotestsrc: {
			description: "Creates audio test signals"
			pad: src: { direction: "src", caps: "audio/x-raw" }
		}
		element: broken: {
			pad: sink: { direction: "sink", caps: "audio/x-raw" }
		}
		element: alsasink: {
			description: "Plays audio"
			rank: 256
			pad: sink: { direction: "sink", caps: "audio/x-raw, rate=(int)44100" }
		}
	`)
	require.NoError(t, v.Err())

	specs, errs := CompileElements(v)
	require.Len(t, specs, 2)
	assert.Equal(t, "audiotestsrc", specs[0].Name)
	assert.Equal(t, "alsasink", specs[1].Name)

	require.Len(t, errs, 1)
	var cerr *CompileError
	require.True(t, errors.As(errs[0], &cerr))
	assert.Equal(t, "description", cerr.Field)
}

func TestCompileElementsWithoutElements(t *testing.T) {
	v := cuecontext.New().CompileString(`other: 1`)
	specs, errs := CompileElements(v)
	assert.Empty(t, specs)
	assert.Empty(t, errs)
}
