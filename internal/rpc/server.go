package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server serves gRPC and HTTP/JSON on one listener.
type Server struct {
	svc    *Service
	grpc   *grpc.Server
	http   *http.Server
	health *health.Server
	closed atomic.Bool

	mu sync.Mutex
	ln net.Listener
}

// NewServer registers svc and the gRPC health service. metrics, if non-nil,
// is exposed at GET /metrics.
func NewServer(svc *Service, metrics http.Handler) (*Server, error) {
	gw, err := NewGateway(svc, metrics)
	if err != nil {
		return nil, fmt.Errorf("gateway routes: %w", err)
	}

	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	gs.RegisterService(&ServiceDesc, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{
		svc:    svc,
		grpc:   gs,
		http:   &http.Server{Handler: gw, ReadHeaderTimeout: 5 * time.Second},
		health: hs,
	}, nil
}

// Serve blocks until ln fails or Shutdown is called. After Shutdown it
// returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	m := cmux.New(ln)
	// History calls carry application/grpc+json, health checks application/grpc.
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldPrefixSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	errc := make(chan error, 3)
	go func() { errc <- s.grpc.Serve(grpcL) }()
	go func() { errc <- s.http.Serve(httpL) }()
	go func() { errc <- m.Serve() }()

	err := <-errc
	if s.closed.Load() {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight calls until ctx
// ends.
func (s *Server) Shutdown(ctx context.Context) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.health.Shutdown()
	s.svc.Close()

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()
	if err := s.http.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Debug("http shutdown", "err", err)
	}
	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpc.Stop()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		_ = s.ln.Close()
	}
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		slog.Debug("rpc failed", "method", info.FullMethod, "err", err, "elapsed", time.Since(start))
	} else {
		slog.Debug("rpc", "method", info.FullMethod, "elapsed", time.Since(start))
	}
	return resp, err
}
