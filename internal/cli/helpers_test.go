package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/capnego/internal/testutil"
)

const audioElements = `package test

element: audiotestsrc: {
	description: "Creates audio test signals"
	pad: src: {
		direction: "src"
		caps:      "audio/x-raw, format=(string){ S16LE, F32LE }, rate=(int)[ 8000, 96000 ], channels=(int)[ 1, 2 ]"
	}
}

element: alsasink: {
	description: "Plays audio through ALSA"
	rank:        256
	pad: sink: {
		direction: "sink"
		caps:      "audio/x-raw, format=(string)S16LE, rate=(int)44100, channels=(int)2"
	}
}

element: fakevideosink: {
	description: "Discards video buffers"
	pad: sink: {
		direction: "sink"
		caps:      "video/x-raw"
	}
}
`

// executeCLI runs the root command with args and returns what it wrote.
func executeCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeSpecs writes the audio elements to a fresh specs directory.
func writeSpecs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "elements.cue", audioElements)
	return dir
}

// compiledRegistry compiles the audio elements into a new registry and
// returns its path.
func compiledRegistry(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "registry.db")
	_, _, err := executeCLI(t, "compile", writeSpecs(t), "--db", db)
	require.NoError(t, err)
	return db
}
