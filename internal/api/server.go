package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bryanchriswhite/winstate/internal/logger"
	"github.com/bryanchriswhite/winstate/internal/window"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

// Window is the window surface the server exposes.
type Window interface {
	Update(fn func(s *window.State))
	Snapshot() window.View
	Stats() (applied, failed uint64)
	Subscribe() chan window.Command
	Unsubscribe(ch chan window.Command)
}

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	window   Window
	upgrader websocket.Upgrader
	http     *http.Server
}

// NewServer creates a new API server
func NewServer(win Window) *Server {
	s := &Server{
		router: mux.NewRouter(),
		window: win,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.setupRoutes()
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Window state
	api.HandleFunc("/window", s.handleGetWindow).Methods("GET")
	api.HandleFunc("/window/stream", s.handleWindowStream)

	// Application mutators
	api.HandleFunc("/window/title", s.handleSetTitle).Methods("PUT")
	api.HandleFunc("/window/resolution", s.handleSetResolution).Methods("PUT")
	api.HandleFunc("/window/mode", s.handleSetMode).Methods("PUT")
	api.HandleFunc("/window/vsync", s.boolHandler((*window.State).SetVsync)).Methods("PUT")
	api.HandleFunc("/window/resizable", s.boolHandler((*window.State).SetResizable)).Methods("PUT")
	api.HandleFunc("/window/decorations", s.boolHandler((*window.State).SetDecorations)).Methods("PUT")
	api.HandleFunc("/window/maximized", s.boolHandler((*window.State).SetMaximized)).Methods("PUT")
	api.HandleFunc("/window/cursor/visible", s.boolHandler((*window.State).SetCursorVisibility)).Methods("PUT")
	api.HandleFunc("/window/cursor/locked", s.boolHandler((*window.State).SetCursorLockMode)).Methods("PUT")
	api.HandleFunc("/window/cursor/position", s.handleSetCursorPosition).Methods("PUT")
	api.HandleFunc("/window/commands", s.handlePostCommand).Methods("POST")

	// Health check
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the HTTP handler with CORS applied
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on the given port until Shutdown is called
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http.Addr = addr
	logger.WithComponent("api").Info().Str("addr", addr).Msg("Starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HTTP Handlers

func (s *Server) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.window.Snapshot())
}

func (s *Server) handleSetTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.window.Update(func(st *window.State) { st.SetTitle(req.Title) })
	writeJSON(w, s.window.Snapshot())
}

func (s *Server) handleSetResolution(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  float32 `json:"width"`
		Height float32 `json:"height"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.window.Update(func(st *window.State) { st.SetResolution(req.Width, req.Height) })
	writeJSON(w, s.window.Snapshot())
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode window.Mode `json:"mode"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.window.Update(func(st *window.State) { st.SetMode(req.Mode) })
	writeJSON(w, s.window.Snapshot())
}

func (s *Server) handleSetCursorPosition(w http.ResponseWriter, r *http.Request) {
	var req window.Vec2
	if !decode(w, r, &req) {
		return
	}
	s.window.Update(func(st *window.State) { st.SetCursorPosition(req) })
	writeJSON(w, s.window.Snapshot())
}

// boolHandler serves PUT {"value": bool} for a boolean mutator
func (s *Server) boolHandler(set func(*window.State, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Value *bool `json:"value"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.Value == nil {
			http.Error(w, `missing "value"`, http.StatusBadRequest)
			return
		}
		s.window.Update(func(st *window.State) { set(st, *req.Value) })
		writeJSON(w, s.window.Snapshot())
	}
}

func (s *Server) handlePostCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd, err := window.UnmarshalCommand(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.window.Update(func(st *window.State) { window.Dispatch(st, cmd) })

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "queued", "kind": cmd.Kind()})
}

// streamMessage is one WebSocket frame
type streamMessage struct {
	Type    string          `json:"type"`
	State   *window.View    `json:"state,omitempty"`
	Command json.RawMessage `json:"command,omitempty"`
}

func (s *Server) handleWindowStream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	updates := s.window.Subscribe()
	defer s.window.Unsubscribe(updates)

	// Detect client disconnects; the stream itself is write-only.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	view := s.window.Snapshot()
	if err := conn.WriteJSON(streamMessage{Type: "state", State: &view}); err != nil {
		log.Debug().Err(err).Msg("WebSocket write error")
		return
	}

	for {
		select {
		case <-closed:
			return
		case cmd, ok := <-updates:
			if !ok {
				return
			}
			data, err := window.MarshalCommand(cmd)
			if err != nil {
				log.Error().Err(err).Str("command", cmd.Kind()).Msg("Failed to encode command")
				continue
			}
			if err := conn.WriteJSON(streamMessage{Type: "applied", Command: data}); err != nil {
				log.Debug().Err(err).Msg("WebSocket write error")
				return
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	applied, failed := s.window.Stats()
	writeJSON(w, map[string]interface{}{
		"status":           "healthy",
		"version":          Version,
		"applied_commands": applied,
		"failed_commands":  failed,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
