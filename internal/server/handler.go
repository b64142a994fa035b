package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"

	"github.com/chzchzchz/padmap/internal/capture"
	"github.com/chzchzchz/padmap/internal/hub"
	"github.com/chzchzchz/padmap/internal/remap"
	"github.com/chzchzchz/padmap/internal/store"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local use only
	},
}

type saveRequest struct {
	Buttons []store.ButtonMapping `json:"button_mappings"`
	Axes    []store.AxisMapping   `json:"axis_mappings"`
}

type messageResponse struct {
	Message string   `json:"message"`
	Args    []string `json:"args,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error writing response: %v", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Timeouts and
// missing mappings carry a hint telling the user what to do next.
func writeError(w http.ResponseWriter, err error) {
	status, hint := http.StatusInternalServerError, ""
	var ioe *capture.DeviceOpenError
	switch {
	case errors.Is(err, capture.ErrTimeout):
		status, hint = http.StatusRequestTimeout, "nothing was detected in time, try again"
	case errors.Is(err, remap.ErrNoMapping):
		status, hint = http.StatusConflict, "map this controller first"
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	case errors.Is(err, fs.ErrPermission):
		status = http.StatusForbidden
	case errors.As(err, &ioe):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Hint: hint})
}

func (s *Server) handleControllers(w http.ResponseWriter, r *http.Request) {
	ctrls, err := s.Discover()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ctrls)
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Store.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	msg, err := s.Store.Delete(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	name, err := s.Resolver.Name(r.PathValue("event"))
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := s.Store.Get(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleHasConfig(w http.ResponseWriter, r *http.Request) {
	name, err := s.Resolver.Name(r.PathValue("event"))
	if err != nil {
		writeError(w, err)
		return
	}
	ok, err := s.Store.Has(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": ok})
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	name, err := s.Resolver.Name(r.PathValue("event"))
	if err != nil {
		writeError(w, err)
		return
	}
	msg, err := s.Store.Save(name, store.ControllerMapping{Buttons: req.Buttons, Axes: req.Axes})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) handleCapture(fn func(context.Context, string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := s.Resolver.Path(r.PathValue("event"))
		id, err := fn(r.Context(), path)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"input": id})
	}
}

func (s *Server) handleStartRemapper(w http.ResponseWriter, r *http.Request) {
	event := r.PathValue("event")
	ls, err := s.synth.Synthesize(event)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Remapper.Start(ls); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Started remapper for %s", filepath.Base(ls.Device)),
		Args:    ls.Args(),
	})
}

func (s *Server) handleStopRemapper(w http.ResponseWriter, r *http.Request) {
	path := s.Resolver.Path(r.PathValue("event"))
	if err := s.Remapper.Stop(path); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Stopped remapper for %s", filepath.Base(path))})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	client := hub.NewClient(s.Hub, conn)
	if data, err := json.Marshal(hub.NewConfigsMessage(s.Store.List())); err == nil {
		client.Send(data)
	}
	s.Hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}
