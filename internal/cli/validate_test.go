package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_ValidPlan(t *testing.T) {
	path := writePlan(t, `
retry:
  max_attempts: 3
  backoff: 100ms
journal:
  path: /tmp/tine.db
wait: true
`)

	out, err := runCLI(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Plan valid")
}

func TestValidate_ValidPlanJSON(t *testing.T) {
	path := writePlan(t, "retry:\n  max_attempts: 2\n")

	out, err := runCLI(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidate_SchemaViolation(t *testing.T) {
	path := writePlan(t, "retry:\n  max_attempts: 0\n")

	out, err := runCLI(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Plan invalid")
	assert.Contains(t, out, "E202")
}

func TestValidate_SchemaViolationJSON(t *testing.T) {
	path := writePlan(t, "retry:\n  jitter: 2.0\n")

	out, err := runCLI(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E202", resp.Error.Code)
}

func TestValidate_MissingFile(t *testing.T) {
	out, err := runCLI(t, "validate", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E200")
}

func TestValidate_BadDuration(t *testing.T) {
	path := writePlan(t, "retry:\n  max_attempts: 2\n  backoff: fast\n")

	out, err := runCLI(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E203")
	assert.Contains(t, out, "retry.backoff")
}
