package database

import (
	"fmt"
	"net"

	"owner_chat_service/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer grpc server exposing only the standard health service
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	ln     net.Listener
}

// NewHealthServer listens on addr, status starts NOT_SERVING until SetServing
func NewHealthServer(addr string) (*HealthServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	s := grpc.NewServer()
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, h)
	return &HealthServer{server: s, health: h, ln: ln}, nil
}

// Serve blocks until Stop
func (h *HealthServer) Serve() {
	logger.Log.Info("grpc health server listening", zap.String("addr", h.ln.Addr().String()))
	if err := h.server.Serve(h.ln); err != nil {
		logger.Log.Error("grpc health server stopped", zap.Error(err))
	}
}

// SetServing flips the overall and per-service status
func (h *HealthServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	if service != "" {
		h.health.SetServingStatus(service, status)
	}
}

// Stop marks everything NOT_SERVING and stops gracefully
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
