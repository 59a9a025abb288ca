// Package api provides the agent's HTTP and WebSocket API for remote plans.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"devinput/internal/config"
	"devinput/internal/input"
	"devinput/internal/network"
	"devinput/internal/protocol"

	"github.com/google/uuid"
	"github.com/kataras/golog"
)

var logger = golog.Child("[api]")

// maxPlanBody bounds a POSTed plan.
const maxPlanBody = 1 << 20

// Server exposes the local engine to remote clients.
type Server struct {
	configMgr *config.Manager
	version   string

	// the native engine is single-writer; plans from every client queue here
	engineMu sync.Mutex
	engine   input.Engine

	events *network.EventSender
	wsMgr  *WSManager

	executed atomic.Uint64
	failed   atomic.Uint64

	httpMu  sync.Mutex
	httpSrv *http.Server

	hostOnce sync.Once
	host     *protocol.HostInfo
}

// NewServer creates a new API server executing plans on engine.
func NewServer(configMgr *config.Manager, engine input.Engine, version string) *Server {
	s := &Server{
		configMgr: configMgr,
		engine:    engine,
		version:   version,
	}
	s.wsMgr = newWSManager(s)
	go s.wsMgr.start()
	return s
}

// SetEventSender attaches the UDP event stream so its listeners show up in
// /api/status.
func (s *Server) SetEventSender(es *network.EventSender) {
	s.events = es
}

// Handler returns the API with its middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plan", s.handlePlan)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return s.authMiddleware(s.recoverMiddleware(mux))
}

// Start serves the API on addr until Shutdown. It blocks.
func (s *Server) Start(addr string) error {
	if ips, err := network.GetLocalIPs(); err == nil {
		for _, ip := range ips {
			logger.Infof("local IPv4: %s", ip)
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: listen on %s: %w", addr, err)
	}
	logger.Infof("listening on %s", ln.Addr())

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpMu.Lock()
	s.httpSrv = srv
	s.httpMu.Unlock()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and closes every WebSocket client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsMgr.stop()
	s.httpMu.Lock()
	srv := s.httpSrv
	s.httpMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ExecutePlan validates plan and runs it on the engine. The returned result
// always carries the plan ID; err is the raw failure, if any.
func (s *Server) ExecutePlan(ctx context.Context, plan *protocol.PlanPayload) (protocol.PlanResultPayload, error) {
	res := protocol.PlanResultPayload{ID: plan.ID}

	actions, err := plan.ToActions()
	if err == nil {
		s.engineMu.Lock()
		err = s.engine.Execute(ctx, actions)
		s.engineMu.Unlock()
	}

	if err != nil {
		s.failed.Add(1)
		res.Error = err.Error()
		logger.Warnf("plan %s failed: %v", plan.ID, err)
		return res, err
	}
	s.executed.Add(1)
	res.OK = true
	logger.Debugf("plan %s executed (%d action(s))", plan.ID, len(actions))
	return res, nil
}

// Status reports the counters behind /api/status.
func (s *Server) Status() protocol.StatusPayload {
	st := protocol.StatusPayload{
		Version:       s.version,
		Engine:        fmt.Sprintf("%T", s.engine),
		PlansExecuted: s.executed.Load(),
		PlansFailed:   s.failed.Load(),
		Clients:       s.wsMgr.count(),
		Host:          s.hostInfo(),
	}
	if s.events != nil {
		st.Listeners = s.events.Listeners()
	}
	return st
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the bearer token when one is configured. The token is
// read per request so config reloads apply immediately.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debugf("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if token := s.configMgr.Get().Server.Token; token != "" {
			if r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// handlePlan handles POST /api/plan with a JSON plan body
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPlanBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	var plan protocol.PlanPayload
	if err := protocol.JSON.Unmarshal(body, &plan); err != nil {
		http.Error(w, "Invalid plan: "+err.Error(), http.StatusBadRequest)
		return
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}

	res, err := s.ExecutePlan(r.Context(), &plan)
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, protocol.ErrInvalidPlan), errors.Is(err, input.ErrInvalidKeyArgument):
		status = http.StatusBadRequest
	case errors.Is(err, input.ErrUnsupported):
		status = http.StatusNotImplemented
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := protocol.JSON.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("failed to write response: %v", err)
	}
}
