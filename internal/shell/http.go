package shell

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gopatchy/artnode/artnet/machine"
	"github.com/gopatchy/artnode/internal/metrics"
)

// NewHTTPServer builds the chi router lacylights-go's cmd/server/main.go
// wires up (RequestID/RealIP/Logger/Recoverer/Timeout middleware), scoped
// down to this node's read-only introspection surface plus a couple of
// operator-intent endpoints that enqueue a machine.Command. metricsReg may
// be nil to omit the /metrics endpoint (e.g. in tests).
func NewHTTPServer(node *Node, metricsReg prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", handleHealthz)
	r.Get("/state", handleState(node))
	if metricsReg != nil {
		r.Get("/metrics", metrics.Handler(metricsReg).ServeHTTP)
	}
	r.Post("/command/{name}", handleCommand(node))
	r.Post("/shutdown", handleShutdown(node))

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// stateSnapshot is the JSON-safe view of machine.State this endpoint
// publishes; the full State carries unexported engine internals that
// aren't meant for an API response.
type stateSnapshot struct {
	Identity interface{} `json:"identity"`
	Network  interface{} `json:"network"`
}

func handleState(node *Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := node.State()
		snap := stateSnapshot{Identity: s.Identity, Network: s.Network}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func handleCommand(node *Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		switch name {
		case "send-sync", "snapshot":
			node.Enqueue(machine.Command{Name: name, Timestamp: time.Now()})
		case "send-rdm", "apply-state", "send-dmx", "send-diagnostic":
			body, _ := io.ReadAll(io.LimitReader(r.Body, 64*1024))
			var in commandBody
			if len(body) > 0 {
				if err := json.Unmarshal(body, &in); err != nil {
					http.Error(w, "invalid command body: "+err.Error(), http.StatusBadRequest)
					return
				}
			}
			node.Enqueue(machine.Command{
				Name: name, Port: in.Port, Data: in.Data, Message: in.Message,
				Timestamp: time.Now(),
			})
		default:
			http.Error(w, "unrecognized command", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// commandBody is the JSON envelope for the commands in handleCommand that
// carry a payload; machine.Command's raw byte/string fields round-trip
// through here.
type commandBody struct {
	Port    uint16 `json:"port"`
	Data    []byte `json:"data"`
	Message string `json:"message"`
}

// handleShutdown lets the CLI's stop-node subcommand request a graceful
// shutdown of a running node without needing its process's PID or a
// signal to reach it directly.
func handleShutdown(node *Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		go node.Close()
	}
}
