package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	called := false
	err := formatter.Success(map[string]string{"result": "success"}, func(io.Writer) { called = true })
	require.NoError(t, err)
	assert.False(t, called, "text writer is not used for JSON")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"result": "success"}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Success("ignored", func(w io.Writer) {
		fmt.Fprintln(w, "All specs valid")
	})
	require.NoError(t, err)
	assert.Equal(t, "All specs valid\n", buf.String())
}

func TestOutputFormatter_Error(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		verbose bool
		details any
		want    []string
		notWant []string
	}{
		{
			name:   "json",
			format: "json",
			want:   []string{`"status": "error"`, `"code": "E301"`, `"message": "bad caps"`},
		},
		{
			name:    "json with details",
			format:  "json",
			details: map[string]int{"offset": 7},
			want:    []string{`"details"`, `"offset": 7`},
		},
		{
			name:    "text",
			format:  "text",
			details: map[string]int{"offset": 7},
			want:    []string{"Error [E301]: bad caps"},
			notWant: []string{"Details:"},
		},
		{
			name:    "text verbose",
			format:  "text",
			verbose: true,
			details: map[string]int{"offset": 7},
			want:    []string{"Error [E301]: bad caps", "Details:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: tt.format, Writer: buf, Verbose: tt.verbose}
			require.NoError(t, formatter.Error(ErrCodeParseCaps, "bad caps", tt.details))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, buf.String(), w)
			}
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			formatter.VerboseLog("Processing %s", "elements.cue")

			assert.Empty(t, out.String(), "diagnostics never go to stdout")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Processing elements.cue")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_Logger(t *testing.T) {
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}, ErrWriter: errOut}

	logger := formatter.Logger()
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	assert.NotContains(t, errOut.String(), "hidden")
	assert.Contains(t, errOut.String(), "shown")
	assert.Contains(t, errOut.String(), "key=value")

	formatter.Verbose = true
	formatter.Logger().Debug("details")
	assert.Contains(t, errOut.String(), "details")
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.fail(ExitCommandError, ErrCodeNotFound, "registry not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "E005: registry not found", err.Error())
	assert.Contains(t, buf.String(), "Error [E005]: registry not found")
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitFailure, "no")), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "writing output", inner)
	assert.Equal(t, "writing output: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "bad", NewExitError(ExitFailure, "bad").Error())
}
