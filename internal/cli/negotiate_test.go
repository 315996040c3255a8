package cli

import (
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/capnego/internal/caps"
)

const audioSinkFormat = "audio/x-raw, format=(string)S16LE, rate=(int)44100, channels=(int)2"

func negotiateJSON(t *testing.T, args ...string) NegotiationOutput {
	t.Helper()
	out, _, err := executeCLI(t, append([]string{"--format", "json", "negotiate"}, args...)...)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   NegotiationOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestNegotiateCommand_Elements(t *testing.T) {
	db := compiledRegistry(t)

	out, _, err := executeCLI(t, "negotiate", "--db", db, "audiotestsrc", "alsasink")
	require.NoError(t, err)
	assert.Equal(t, audioSinkFormat+"\n", out)
}

func TestNegotiateCommand_JSON(t *testing.T) {
	db := compiledRegistry(t)

	res := negotiateJSON(t, "--db", db, "audiotestsrc", "alsasink")
	assert.Equal(t, audioSinkFormat, res.Fixed)
	assert.Equal(t, audioSinkFormat, res.Common)
	assert.NotEmpty(t, res.Session)
	assert.Len(t, res.Key, 64)
	assert.False(t, res.Cached)
}

func TestNegotiateCommand_Caps(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zigzag", []string{"--caps", "A; B", "B; A"}, "B\n"},
		{"first", []string{"--caps", "--mode", "first", "A; B", "B; A"}, "A\n"},
		{"range against list", []string{"--caps", "audio/x-raw, rate=(int)[ 1, 96000 ]", "audio/x-raw, rate=(int){ 48000, 44100 }"}, "audio/x-raw, rate=(int)48000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeCLI(t, append([]string{"negotiate"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestNegotiateCommand_Filter(t *testing.T) {
	db := compiledRegistry(t)

	// The filter leads the intersection, so its fields come first.
	res := negotiateJSON(t, "--db", db, "audiotestsrc", "alsasink", "--filter", "audio/x-raw, channels=(int)2")
	assert.Equal(t, "audio/x-raw, channels=(int)2, format=(string)S16LE, rate=(int)44100", res.Fixed)
	assert.True(t, caps.IsEqual(caps.MustParse(audioSinkFormat), caps.MustParse(res.Fixed)))

	out, _, err := executeCLI(t, "negotiate", "--db", db, "audiotestsrc", "alsasink", "--filter", "audio/x-raw, channels=(int)1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E302]")
}

func TestNegotiateCommand_Failures(t *testing.T) {
	db := compiledRegistry(t)

	tests := []struct {
		name     string
		args     []string
		exitCode int
		wantCode string
	}{
		{"no common format", []string{"--db", db, "audiotestsrc", "fakevideosink"}, ExitFailure, ErrCodeNoCommon},
		{"not fixable", []string{"--caps", "ANY", "ANY"}, ExitFailure, ErrCodeNotFixable},
		{"unknown element", []string{"--db", db, "audiotestsrc", "pulsesink"}, ExitCommandError, ErrCodeNotFound},
		{"element without src pads", []string{"--db", db, "alsasink", "alsasink"}, ExitCommandError, ErrCodeNotFound},
		{"no db", []string{"audiotestsrc", "alsasink"}, ExitCommandError, ErrCodeBadFlag},
		{"bad mode", []string{"--caps", "--mode", "last", "x", "x"}, ExitCommandError, ErrCodeBadFlag},
		{"bad filter", []string{"--caps", "--filter", "x, a=(int)[", "x", "x"}, ExitCommandError, ErrCodeParseCaps},
		{"bad redis url", []string{"--caps", "--redis", "http://localhost", "x", "x"}, ExitCommandError, ErrCodeCache},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeCLI(t, append([]string{"negotiate"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestNegotiateCommand_FailureJSON(t *testing.T) {
	db := compiledRegistry(t)

	out, _, err := executeCLI(t, "--format", "json", "negotiate", "--db", db, "audiotestsrc", "fakevideosink")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNoCommon, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "audiotestsrc ! fakevideosink")
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, details["session_id"])
}

func TestNegotiateCommand_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()

	first := negotiateJSON(t, "--caps", "--redis", url, "audio/x-raw, rate=(int)[ 8000, 96000 ]", "audio/x-raw, rate=(int)44100")
	assert.False(t, first.Cached)
	assert.True(t, mr.Exists("capnego:negotiation:"+first.Key))

	second := negotiateJSON(t, "--caps", "--redis", url, "--cache-ttl", "5m", "audio/x-raw, rate=(int)[ 8000, 96000 ]", "audio/x-raw, rate=(int)44100")
	assert.True(t, second.Cached)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.Fixed, second.Fixed)
	assert.NotEqual(t, first.Session, second.Session)
}

func TestNegotiateCommand_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()
	mr.Close()

	out, stderr, err := executeCLI(t, "negotiate", "--caps", "--redis", url, "A", "A")
	require.NoError(t, err)
	assert.Equal(t, "A\n", out)
	assert.Contains(t, stderr, "redis unavailable")
}
