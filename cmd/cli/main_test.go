package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gojsm/domain/jsm"
	"gojsm/domain/run"
)

const toyCSV = "id,a,b,c,d,label\n1,1,1,0,0,1\n2,1,0,1,0,1\n3,0,0,0,1,-1\n4,1,1,1,0,\n"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("JSM_CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "ERROR")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeToy(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toy.csv")
	require.NoError(t, os.WriteFile(path, []byte(toyCSV), 0o644))
	return path
}

func TestRunCommand_JSON(t *testing.T) {
	path := writeToy(t)

	out, _, err := execute(t, "run", path, "--target", "label",
		"--ext-threshold", "1", "--int-threshold", "1", "--format", "json")
	require.NoError(t, err)

	var rn run.Run
	require.NoError(t, json.Unmarshal([]byte(out), &rn))
	assert.Equal(t, "norris", rn.Method)
	assert.Equal(t, 1, rn.ExtThreshold)
	assert.Equal(t, 2, rn.FinalStep)
	assert.True(t, rn.Complete)
	for _, row := range rn.Results {
		if row.ID == 4 {
			assert.Equal(t, jsm.Positive, row.Label)
		}
	}
}

func TestRunCommand_TraceAndText(t *testing.T) {
	path := writeToy(t)

	out, errOut, err := execute(t, "run", path, "--target", "label",
		"--ext-threshold", "1", "--int-threshold", "1", "--steps", "1", "--trace")
	require.NoError(t, err)
	assert.Contains(t, errOut, "step 1: +[1 2 4]")
	assert.Contains(t, out, "fixed point false")
}

func TestRunCommand_Markdown(t *testing.T) {
	path := writeToy(t)

	out, _, err := execute(t, "run", path, "--target", "label",
		"--ext-threshold", "1", "--int-threshold", "1", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## Positive causes")
	assert.Contains(t, out, "| Ban counterexamples | false |")
}

func TestRunCommand_Errors(t *testing.T) {
	path := writeToy(t)

	_, _, err := execute(t, "run", path, "--format", "yaml")
	assert.ErrorContains(t, err, "unknown format")

	_, _, err = execute(t, "run", path)
	assert.ErrorContains(t, err, "target column", "default target column is missing from the file")

	_, _, err = execute(t, "run", path, "--target", "label", "--method", "magic")
	assert.Error(t, err)

	_, _, err = execute(t, "run", path, "--target", "label", "--persist")
	assert.ErrorContains(t, err, "no database configured")

	_, _, err = execute(t, "runs", "list")
	assert.ErrorContains(t, err, "no database configured")
}
