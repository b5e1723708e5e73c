package api

import (
	"fmt"
	"net/http"
	"time"

	"notary/internal/manager"

	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

type APIServer struct {
	port    int
	manager *manager.Manager
	logger  *zap.Logger
	decoder *schema.Decoder
}

func NewAPIServer(port int, manager *manager.Manager, logger *zap.Logger) *APIServer {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &APIServer{
		port:    port,
		manager: manager,
		logger:  logger.Named("api"),
		decoder: decoder,
	}
}

// HTTPServer wraps the routes in an http.Server with the service timeouts.
func (s *APIServer) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
