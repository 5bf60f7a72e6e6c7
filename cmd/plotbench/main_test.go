package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotbench/internal/bench"
	"plotbench/internal/registry"
)

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, splitCSV(c.in), c.in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "warn", "json")
	require.NoError(t, err)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	_, err = newLogger(&buf, "loud", "json")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error", "--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSelectModels(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "venice_q6.gguf"), nil, 0o644))
	reg := registry.Builtin()

	got, err := selectModels(reg, dir, []string{"all"})
	require.NoError(t, err)
	assert.Equal(t, []string{"venice"}, got)

	got, err = selectModels(reg, dir, []string{"qwq_planet", "venice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"venice"}, got)

	_, err = selectModels(reg, dir, []string{"qwq_planet"})
	assert.EqualError(t, err, "no valid models selected")

	_, err = selectModels(reg, t.TempDir(), []string{"all"})
	assert.Error(t, err)
	assert.Len(t, unavailable(reg, dir), 3)
}

func TestModelsCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "venice_q6.gguf"), nil, 0o644))
	out, err := run(t, "models", "--models-dir", dir)
	require.NoError(t, err)
	var veniceLine string
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, "venice ") {
			veniceLine = l
		}
	}
	assert.True(t, strings.HasSuffix(strings.TrimSpace(veniceLine), "yes"), out)
	assert.Contains(t, out, "qwq_planet")
}

func TestPromptInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	out, err := run(t, "prompt", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = run(t, "prompt", "init", path)
	assert.ErrorContains(t, err, "already exists")
	_, err = run(t, "prompt", "init", "--force", path)
	assert.NoError(t, err)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	results := []bench.ModelResult{{
		ModelName: "venice",
		Status:    bench.StatusCompleted,
		CreativeTests: &bench.CreativeTests{ModelName: "venice", TestResults: []bench.TestResult{
			{TestName: "Dialogue Writing", Prompt: "p", Response: "r", WordCount: 1, Success: true},
		}},
	}}
	_, details, err := bench.WriteReport(dir, results, time.Now(), 32)
	require.NoError(t, err)

	out, err := run(t, "export", details, "--output-dir", dir)
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.FileExists(t, path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Dialogue Writing")
}

func TestStartRequiresModel(t *testing.T) {
	_, err := run(t, "start")
	assert.Error(t, err)
}
