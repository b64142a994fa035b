// Package server exposes mapping, capture and remapper operations over a
// local HTTP API with a WebSocket change feed.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/chzchzchz/padmap/internal/device"
	"github.com/chzchzchz/padmap/internal/hub"
	"github.com/chzchzchz/padmap/internal/remap"
	"github.com/chzchzchz/padmap/internal/store"
)

// Capturer runs interactive capture sessions against a device.
type Capturer interface {
	CaptureButton(ctx context.Context, path string) (string, error)
	CaptureAxis(ctx context.Context, path string) (string, error)
}

// Remapper starts and stops the external remapper process.
type Remapper interface {
	Start(ls *remap.LaunchSpec) error
	Stop(path string) error
}

type Config struct {
	Addr     string
	Resolver *device.Resolver
	Store    *store.Store
	Capture  Capturer
	Remapper Remapper
	Hub      *hub.Hub
	Discover func() ([]device.Controller, error)
}

type Server struct {
	Config
	synth      *remap.Synthesizer
	httpServer *http.Server
}

func New(cfg Config) *Server {
	if cfg.Discover == nil {
		cfg.Discover = cfg.Resolver.Discover
	}
	s := &Server{
		Config: cfg,
		synth:  remap.NewSynthesizer(cfg.Resolver, cfg.Store),
	}
	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler routes every API endpoint. Each request runs on its own
// goroutine, so a long capture never holds up other calls.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/controllers", s.handleControllers)
	mux.HandleFunc("GET /api/configs", s.handleListConfigs)
	mux.HandleFunc("DELETE /api/configs/{name}", s.handleDeleteConfig)
	mux.HandleFunc("GET /api/devices/{event}/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/devices/{event}/config", s.handleSaveConfig)
	mux.HandleFunc("GET /api/devices/{event}/config/exists", s.handleHasConfig)
	mux.HandleFunc("POST /api/devices/{event}/capture/button", s.handleCapture(s.Capture.CaptureButton))
	mux.HandleFunc("POST /api/devices/{event}/capture/axis", s.handleCapture(s.Capture.CaptureAxis))
	mux.HandleFunc("POST /api/devices/{event}/remapper", s.handleStartRemapper)
	mux.HandleFunc("DELETE /api/devices/{event}/remapper", s.handleStopRemapper)
	if s.Hub != nil {
		mux.HandleFunc("GET /ws", s.handleWebSocket)
	}
	return mux
}

func (s *Server) ListenAndServe() error {
	log.Printf("HTTP server listening on %s", s.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server. A later ListenAndServe returns
// http.ErrServerClosed.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

// NotifyConfigs pushes the current store contents to every WebSocket client.
func (s *Server) NotifyConfigs() {
	if s.Hub == nil {
		return
	}
	data, err := json.Marshal(hub.NewConfigsMessage(s.Store.List()))
	if err != nil {
		log.Printf("error marshaling configs message: %v", err)
		return
	}
	s.Hub.Broadcast(data)
}
