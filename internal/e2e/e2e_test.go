package e2e

import (
	"encoding/json"
	"net/http"
	"syscall"
	"testing"
	"time"

	"plotbench/internal/supervisor"
	"plotbench/pkg/types"
)

func TestE2E_StartChatStop(t *testing.T) {
	srv, sup := newStack(t)

	resp, body := httpGet(t, srv.URL+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz before start: %d %s", resp.StatusCode, body)
	}

	resp, body = httpPostJSON(t, srv.URL+"/server/start", []byte(`{"model":"venice"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/server/start: %d %s", resp.StatusCode, body)
	}
	var st types.ServerStatus
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.ModelID != "venice" || st.Port == 0 || st.PID == 0 || st.StartupLogLines == 0 {
		t.Fatalf("unexpected status %+v", st)
	}
	if sup.State() != supervisor.StateActive {
		t.Fatalf("state=%s", sup.State())
	}

	resp, _ = httpGet(t, srv.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz after start: %d", resp.StatusCode)
	}

	resp, body = httpPostJSON(t, srv.URL+"/chat", []byte(`{"message":"hello there"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/chat: %d %s", resp.StatusCode, body)
	}
	var turn types.ChatTurnResponse
	if err := json.Unmarshal(body, &turn); err != nil {
		t.Fatalf("json: %v", err)
	}
	if turn.Result.Content != "echo: hello there" || turn.Result.WordCount != 3 {
		t.Fatalf("unexpected chat result %+v", turn.Result)
	}
	if turn.Prompt.InteractionCount != 1 {
		t.Fatalf("scheduler not incremented: %+v", turn.Prompt)
	}

	resp, body = httpPostJSON(t, srv.URL+"/server/stop", []byte(`{}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/server/stop: %d %s", resp.StatusCode, body)
	}
	var stop types.StopResponse
	_ = json.Unmarshal(body, &stop)
	if !stop.Stopped || sup.State() != supervisor.StateIdle {
		t.Fatalf("stop=%+v state=%s", stop, sup.State())
	}
	if _, ok := sup.Active(); ok {
		t.Fatalf("active handle left after stop")
	}
}

func TestE2E_StartupErrorLeavesIdle(t *testing.T) {
	srv, sup := newStack(t)

	resp, body := httpPostJSON(t, srv.URL+"/server/start", []byte(`{"model":"broken"}`))
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d %s", resp.StatusCode, body)
	}
	if sup.State() != supervisor.StateIdle {
		t.Fatalf("state=%s", sup.State())
	}
	var status types.StatusResponse
	_, body = httpGet(t, srv.URL+"/status")
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("json: %v", err)
	}
	if status.FailuresTotal != 1 || status.LastError == "" || status.Server != nil {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestE2E_ReplaceActiveServer(t *testing.T) {
	srv, sup := newStack(t)

	resp, body := httpPostJSON(t, srv.URL+"/server/start", []byte(`{"model":"venice"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first start: %d %s", resp.StatusCode, body)
	}
	first, _ := sup.Active()

	resp, body = httpPostJSON(t, srv.URL+"/server/start", []byte(`{"model":"venice"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second start: %d %s", resp.StatusCode, body)
	}
	second, _ := sup.Active()
	if first.PID() == second.PID() {
		t.Fatalf("expected a new process")
	}
	if err := syscall.Kill(first.PID(), 0); err == nil {
		t.Fatalf("first server still running (pid %d)", first.PID())
	}
}

func TestE2E_LostServerDetectedOnChat(t *testing.T) {
	srv, sup := newStack(t)

	resp, body := httpPostJSON(t, srv.URL+"/server/start", []byte(`{"model":"venice"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %d %s", resp.StatusCode, body)
	}
	h, _ := sup.Active()
	if err := syscall.Kill(h.PID(), syscall.SIGKILL); err != nil {
		t.Fatalf("kill: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, _ = httpPostJSON(t, srv.URL+"/chat", []byte(`{"message":"anyone?"}`))
		if resp.StatusCode == http.StatusConflict {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("lost server not detected; last status %d", resp.StatusCode)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if sup.State() != supervisor.StateIdle {
		t.Fatalf("state=%s", sup.State())
	}
}
