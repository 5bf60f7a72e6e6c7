package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"plotbench/internal/httpapi"
	"plotbench/internal/prompts"
	"plotbench/internal/registry"
	"plotbench/internal/supervisor"
	"plotbench/pkg/types"
)

// buildFakeServer compiles testdata/fake_llama_server.go into a temp dir.
func buildFakeServer(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping subprocess e2e in -short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH")
	}
	bin := filepath.Join(t.TempDir(), "llama-server")
	cmd := exec.Command("go", "build", "-o", bin, "./testdata/fake_llama_server.go")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build fake server: %v\n%s", err, out)
	}
	return bin
}

// createTempModelsDir creates empty model files and returns the directory.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", n, err)
		}
	}
	return dir
}

func newStack(t *testing.T) (*httptest.Server, *supervisor.Supervisor) {
	t.Helper()
	bin := buildFakeServer(t)
	dir := createTempModelsDir(t, "venice_q6.gguf", "broken.gguf")
	reg := registry.Builtin().Merge(types.ModelConfig{ID: "broken", File: "broken.gguf"})
	sup := supervisor.New(supervisor.Config{
		Registry:       reg,
		ModelsDir:      dir,
		LlamaBin:       bin,
		LlamaHost:      "127.0.0.1",
		BindHost:       "127.0.0.1",
		StartupWindow:  10 * time.Second,
		HealthTimeout:  10 * time.Second,
		HealthInterval: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = sup.Stop() })
	srv := httptest.NewServer(httpapi.NewMux(sup, httpapi.Options{Prompts: prompts.New(prompts.DefaultEntries())}))
	t.Cleanup(srv.Close)
	return srv, sup
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	return do(t, req)
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
