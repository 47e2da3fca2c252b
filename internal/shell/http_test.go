package shell

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHealthzReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handleHealthz(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestStateEndpointReturnsIdentity(t *testing.T) {
	node, _ := testNode(t)
	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	w := httptest.NewRecorder()
	handleState(node)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatal("expected a non-empty JSON body")
	}
}

func TestCommandEndpointRejectsUnknownName(t *testing.T) {
	node, _ := testNode(t)
	req := httptest.NewRequest(http.MethodPost, "/command/bogus", nil)
	w := httptest.NewRecorder()
	handleCommand(node)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCommandEndpointAcceptsRdmPayloadThroughRouter(t *testing.T) {
	node, _ := testNode(t)
	r := NewHTTPServer(node, nil)

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/command/send-rdm", "application/json", strings.NewReader(`{"message":"10.0.0.9:6454"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
}

func TestCommandEndpointRejectsInvalidJSONBody(t *testing.T) {
	node, _ := testNode(t)
	r := NewHTTPServer(node, nil)

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/command/apply-state", "application/json", strings.NewReader(`not json`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestShutdownEndpointStopsTheNode(t *testing.T) {
	node, _ := testNode(t)
	r := NewHTTPServer(node, nil)

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/shutdown", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	select {
	case <-node.done:
	case <-time.After(2 * time.Second):
		t.Fatal("node did not close after /shutdown")
	}
}
