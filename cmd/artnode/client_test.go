package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStateCommandPrintsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/state" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"identity":{"short_name":"node"}}`))
	}))
	defer srv.Close()

	cmd := newStateCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--target", srv.URL})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("short_name")) {
		t.Errorf("expected output to contain short_name, got %q", out.String())
	}
}

func TestStateCommandReturnsErrorOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cmd := newStateCommand()
	cmd.SetOut(bytes.NewBuffer(nil))
	cmd.SetArgs([]string{"--target", srv.URL})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestCommandCommandPostsToNamedRoute(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cmd := newEnqueueCommandCommand()
	cmd.SetArgs([]string{"send-sync", "--target", srv.URL})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("got method %q, want POST", gotMethod)
	}
	if gotPath != "/command/send-sync" {
		t.Errorf("got path %q, want /command/send-sync", gotPath)
	}
}

func TestCommandCommandRequiresExactlyOneArg(t *testing.T) {
	cmd := newEnqueueCommandCommand()
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing argument")
	}
}

func TestEnqueueCommandSendsJSONBodyWhenPayloadFlagsSet(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cmd := newEnqueueCommandCommand()
	cmd.SetArgs([]string{"send-rdm", "--target", srv.URL, "--message", "10.0.0.5:6454"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !bytes.Contains(gotBody, []byte("10.0.0.5:6454")) {
		t.Errorf("expected body to contain target message, got %q", gotBody)
	}
}

func TestStopNodePostsToShutdownEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cmd := newStopNodeCommand()
	cmd.SetArgs([]string{"--target", srv.URL})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if gotPath != "/shutdown" {
		t.Errorf("got path %q, want /shutdown", gotPath)
	}
}
