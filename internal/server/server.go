// Package server wires the MCP tool set onto an HTTP/SSE transport.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"browser-mcp/internal/config"
	"browser-mcp/internal/tools"
)

const (
	Name    = "browser-mcp"
	Version = "1.0.0"
)

// Server hosts the SSE transport, the message endpoint, and the health
// check.
type Server struct {
	cfg  *config.Config
	log  *zap.Logger
	http *http.Server
}

func New(cfg *config.Config, log *zap.Logger, toolset []tools.Tool) *Server {
	mcpServer := server.NewMCPServer(Name, Version)
	for _, t := range toolset {
		mcpServer.AddTool(t.Descriptor(), t.Execute)
		log.Debug("tool registered", zap.String("tool", t.Name()))
	}

	baseURL := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	sseServer := server.NewSSEServer(mcpServer,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint(cfg.SSEPath),
		server.WithMessageEndpoint(cfg.MessagePath),
	)

	httpLogger := httplog.NewLogger(Name, httplog.Options{
		JSON:    cfg.LogJSON,
		Concise: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(httpLogger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", handleHealth)
	r.Handle(cfg.SSEPath, sseServer.SSEHandler())
	r.Handle(cfg.MessagePath, sseServer.MessageHandler())

	return &Server{
		cfg: cfg,
		log: log,
		http: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler: r,
		},
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"server":  Name,
		"version": Version,
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening",
			zap.String("addr", s.http.Addr),
			zap.String("sse_path", s.cfg.SSEPath))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	return s.http.Shutdown(shutdownCtx)
}
