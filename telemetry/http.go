//go:build !tinygo

package telemetry

import (
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/net/netutil"
)

// HTTPServer publishes Snapshots over a plain HTTP GET endpoint, the host
// build's counterpart to the tinygo build's MQTT publisher.
type HTTPServer struct {
	src Source
	log *slog.Logger

	srv *http.Server
}

// NewHTTPServer wires an HTTPServer that serves the latest Snapshot of src
// as JSON at "/status".
func NewHTTPServer(src Source, log *slog.Logger) *HTTPServer {
	if log == nil {
		log = slog.Default()
	}
	h := &HTTPServer{src: src, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", h.serveStatus)
	h.srv = &http.Server{Handler: mux}
	return h
}

func (h *HTTPServer) serveStatus(w http.ResponseWriter, r *http.Request) {
	payload, err := Snap(h.src).Marshal()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// ListenAndServe binds addr and serves until the listener is closed. maxConns
// bounds concurrent connections via netutil.LimitListener, so a misbehaving
// or malicious batch of status pollers cannot exhaust file descriptors on a
// small embedded host.
func (h *HTTPServer) ListenAndServe(addr string, maxConns int) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	ln = netutil.LimitListener(ln, maxConns)
	h.log.Info("telemetry http endpoint listening", "addr", addr, "max_conns", maxConns)
	return h.srv.Serve(ln)
}

// Close shuts the server down.
func (h *HTTPServer) Close() error {
	return h.srv.Close()
}
