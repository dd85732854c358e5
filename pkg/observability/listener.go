package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Diagnostics is the optional local HTTP listener exposing /metrics and
// /healthz. The protocol itself runs over stdio, so this listener is the
// only way to observe a running server from outside.
type Diagnostics struct {
	srv       *http.Server
	startTime time.Time
	log       *slog.Logger
}

type healthResponse struct {
	Status     string `json:"status"`
	UptimeSecs int64  `json:"uptime_seconds"`
}

// NewDiagnostics builds a listener bound to addr, typically a loopback
// address. It does not start serving until Serve is called.
func NewDiagnostics(addr string, logger *slog.Logger) *Diagnostics {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Diagnostics{startTime: time.Now(), log: logger}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", d.handleHealth)

	d.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return d
}

// Serve listens and serves until Shutdown. Listen failures are logged
// and swallowed: diagnostics are best-effort and must never take down
// the protocol loop.
func (d *Diagnostics) Serve() {
	ln, err := net.Listen("tcp", d.srv.Addr)
	if err != nil {
		d.log.Warn("diagnostics listener unavailable", "addr", d.srv.Addr, "error", err)
		return
	}
	d.log.Info("diagnostics listening", "addr", ln.Addr().String())
	if err := d.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		d.log.Warn("diagnostics listener stopped", "error", err)
	}
}

// Shutdown stops the listener, waiting briefly for in-flight scrapes.
func (d *Diagnostics) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = d.srv.Shutdown(shutdownCtx)
}

func (d *Diagnostics) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:     "healthy",
		UptimeSecs: int64(time.Since(d.startTime).Seconds()),
	})
}
