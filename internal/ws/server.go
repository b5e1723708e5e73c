package ws

import (
	"fmt"
	"net/http"
	"time"

	"notary/internal/manager"

	"go.uber.org/zap"
)

// WSServer streams digest lifecycle events to websocket subscribers.
type WSServer struct {
	port    int
	manager *manager.Manager
	logger  *zap.Logger
}

func NewWSServer(port int, manager *manager.Manager, logger *zap.Logger) *WSServer {
	return &WSServer{
		port:    port,
		manager: manager,
		logger:  logger.Named("ws"),
	}
}

func (ws *WSServer) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        fmt.Sprintf(":%d", ws.port),
		Handler:     ws.Serve(),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
	}
}
