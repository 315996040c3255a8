package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/capnego/internal/caps"
)

// Common caps used across package tests.
const (
	AudioSource = "audio/x-raw, format=(string){ S16LE, F32LE }, rate=(int)[ 8000, 96000 ], channels=(int)[ 1, 2 ]"
	AudioSink   = "audio/x-raw, format=(string)S16LE, rate=(int)44100, channels=(int)2"
	VideoSource = "video/x-raw, format=(string){ I420, NV12 }, width=(int)[ 320, 1920 ], height=(int)[ 240, 1080 ]"
)

// ParseCaps parses text or fails the test.
func ParseCaps(t testing.TB, text string) *caps.Caps {
	t.Helper()
	c, err := caps.FromString(text)
	require.NoError(t, err, "parse caps %q", text)
	return c
}

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
