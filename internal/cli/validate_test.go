package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/capnego/internal/testutil"
)

const invalidElements = `package test

element: badsrc: {
	description: "Pad pointing nowhere"
	pad: src: {
		direction: "both"
		presence:  "never"
		caps:      "audio/x-raw"
	}
}
`

func TestValidateCommand_Valid(t *testing.T) {
	out, _, err := executeCLI(t, "validate", writeSpecs(t))
	require.NoError(t, err)
	assert.Equal(t, "✓ All specs valid (3 element(s))\n", out)
}

func TestValidateCommand_Invalid(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "elements.cue", invalidElements)

	out, _, err := executeCLI(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 error(s)")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `E203: badsrc.pads[0].direction: invalid direction "both"`)
	assert.Contains(t, out, "E204: badsrc.pads[0].presence")
}

func TestValidateCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "elements.cue", invalidElements)

	out, _, err := executeCLI(t, "--format", "json", "validate", dir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Elements)
	require.Len(t, resp.Data.Errors, 2)
	assert.Equal(t, "badsrc", resp.Data.Errors[0].Element)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E203", resp.Error.Code)
}

func TestValidateCommand_MissingDirectory(t *testing.T) {
	_, _, err := executeCLI(t, "validate", "/nonexistent/specs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "specs directory not found")
}

func TestSpecProblem_String(t *testing.T) {
	tests := []struct {
		name    string
		problem SpecProblem
		want    string
	}{
		{"element field", SpecProblem{Element: "a", Field: "description", Code: "E201", Message: "required"}, "E201: a.description: required"},
		{"with line", SpecProblem{Field: "pad", Code: "E202", Message: "none", Line: 4}, "line 4: E202: pad: none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.problem.String())
		})
	}
}
