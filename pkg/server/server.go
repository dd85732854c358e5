package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rhuss/werkbank/pkg/observability"
	"github.com/rhuss/werkbank/pkg/tools"
	"github.com/rhuss/werkbank/pkg/vault"
	"github.com/rhuss/werkbank/pkg/wire"
)

// DefaultIdleTimeout is how long the server waits without any inbound
// traffic before concluding the orchestrator is gone and exiting.
const DefaultIdleTimeout = 5 * time.Minute

// Options configures a Server beyond its collaborators.
type Options struct {
	// IdleTimeout overrides DefaultIdleTimeout. Zero means the default.
	IdleTimeout time.Duration

	// Logger receives protocol diagnostics. Nil means slog.Default,
	// which main binds to stderr; stdout carries only frames.
	Logger *slog.Logger

	// Exit terminates the process on watchdog expiry. Nil means os.Exit.
	// Injected by tests.
	Exit func(code int)
}

// Server runs the protocol loop over an inbound and outbound byte
// stream, normally stdin and stdout.
type Server struct {
	toolbox *tools.Toolbox
	vault   *vault.Vault
	in      io.Reader

	writeMu sync.Mutex
	out     io.Writer

	idleTimeout time.Duration
	exit        func(int)
	log         *slog.Logger

	wg sync.WaitGroup // in-flight execute goroutines
}

// New builds a Server. The toolbox executes directives; the vault
// receives credential deliveries.
func New(toolbox *tools.Toolbox, v *vault.Vault, in io.Reader, out io.Writer, opts Options) *Server {
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}
	return &Server{
		toolbox:     toolbox,
		vault:       v,
		in:          in,
		out:         out,
		idleTimeout: idle,
		exit:        exit,
		log:         logger,
	}
}

// Run drives the protocol loop until a shutdown request, end of input,
// or a read error. In-flight executions are drained before returning, so
// their results reach the orchestrator even during shutdown. Every
// return path is a clean exit; an isolated container must never signal
// failure through its exit code.
func (s *Server) Run(ctx context.Context) error {
	watchdog := time.AfterFunc(s.idleTimeout, func() {
		s.log.Info("idle timeout reached, exiting", "timeout", s.idleTimeout)
		s.exit(0)
	})
	defer watchdog.Stop()

	dec := wire.NewDecoder()
	buf := make([]byte, 64*1024)

	for {
		if ctx.Err() != nil {
			s.wg.Wait()
			return ctx.Err()
		}

		n, readErr := s.in.Read(buf)
		if n > 0 {
			watchdog.Reset(s.idleTimeout)

			frames, err := dec.Feed(buf[:n])
			if errors.Is(err, wire.ErrFrameTooLarge) {
				observability.FrameErrorsTotal.WithLabelValues("oversized").Inc()
				s.send(wire.NewErrorResponse("",
					fmt.Sprintf("frame exceeds maximum size of %d bytes", wire.MaxFrameBytes)))
			}
			for _, frame := range frames {
				observability.FramesTotal.WithLabelValues("in").Inc()
				if s.handleFrame(ctx, frame) {
					s.log.Info("shutdown requested")
					s.wg.Wait()
					return nil
				}
			}
		}

		if readErr != nil {
			s.wg.Wait()
			if errors.Is(readErr, io.EOF) {
				s.log.Info("input closed, exiting")
				return nil
			}
			s.log.Error("read failed", "error", readErr)
			return readErr
		}
	}
}

// handleFrame dispatches one decoded frame and reports whether it was a
// shutdown request.
func (s *Server) handleFrame(ctx context.Context, frame []byte) (shutdown bool) {
	var req wire.Request
	if err := json.Unmarshal(frame, &req); err != nil {
		observability.FrameErrorsTotal.WithLabelValues("parse").Inc()
		s.send(wire.NewErrorResponse("", "malformed request: "+err.Error()))
		return false
	}

	switch req.Type {
	case wire.RequestExecute:
		s.handleExecute(ctx, req)
	case wire.RequestCredential:
		s.handleCredential(req)
	case wire.RequestShutdown:
		return true
	default:
		s.send(wire.NewErrorResponse(req.ID, fmt.Sprintf("unknown request type %q", req.Type)))
	}
	return false
}

// handleExecute launches the tool in its own goroutine. The result is
// framed when the tool finishes, so concurrent executions interleave in
// completion order.
func (s *Server) handleExecute(ctx context.Context, req wire.Request) {
	if req.ID == "" {
		s.send(wire.NewErrorResponse("", "execute: id is required"))
		return
	}
	if req.Tool == "" {
		s.send(wire.NewErrorResponse(req.ID, "execute: tool is required"))
		return
	}

	s.wg.Add(1)
	observability.ExecutionsInFlight.Inc()
	go func() {
		defer s.wg.Done()
		defer observability.ExecutionsInFlight.Dec()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("execute panic", "id", req.ID, "tool", req.Tool, "panic", fmt.Sprint(r))
				s.send(wire.NewErrorResponse(req.ID, fmt.Sprintf("internal failure: %v", r)))
			}
		}()

		s.log.Info("execute", "id", req.ID, "tool", req.Tool, "timeout_ms", req.TimeoutMs)
		result := s.toolbox.Execute(ctx, req.Tool, req.Args, req.TimeoutMs)
		observability.ObserveExecution(req.Tool, result.OK, float64(result.DurationMs)/1000)
		s.log.Info("execute complete",
			"id", req.ID,
			"tool", req.Tool,
			"ok", result.OK,
			"error_code", string(result.ErrorCode),
			"duration_ms", result.DurationMs,
			"output_len", len(result.Output),
		)
		s.send(wire.NewResultResponse(req.ID, result))
	}()
}

// handleCredential stores the secret and acknowledges with the name
// only. The value is never logged or echoed.
func (s *Server) handleCredential(req wire.Request) {
	if req.Name == "" {
		s.send(wire.NewErrorResponse("", "credential: name is required"))
		return
	}
	if !vault.ValidName(req.Name) {
		s.send(wire.NewErrorResponse("", fmt.Sprintf("credential: name %q cannot be referenced by a placeholder; use letters, digits, '_', '.', '-'", req.Name)))
		return
	}
	s.vault.Put(req.Name, req.Value)
	observability.CredentialsStored.Set(float64(len(s.vault.Names())))
	s.log.Info("credential stored", "name", req.Name)
	s.send(wire.NewCredentialAck(req.Name))
}

// send frames and writes one response. The write mutex keeps concurrent
// completions from interleaving bytes of different frames.
func (s *Server) send(resp wire.Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("response marshal failed", "type", resp.Type, "error", err)
		return
	}
	frame, err := wire.EncodeFrame(payload)
	if err != nil {
		s.log.Error("response frame failed", "type", resp.Type, "error", err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(frame); err != nil {
		s.log.Error("response write failed", "type", resp.Type, "error", err)
		return
	}
	observability.FramesTotal.WithLabelValues("out").Inc()
}
