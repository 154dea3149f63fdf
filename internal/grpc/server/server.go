package server

import (
	"context"
	"net"
	"time"

	"nardeboun-backend/internal/grpc/middleware"
	"nardeboun-backend/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health key reported alongside the overall "" status.
const ServiceName = "nardeboun.Functions"

const defaultCheckInterval = 15 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	JWTSecret     string
	DB            Pinger
	CheckInterval time.Duration
}

// Server exposes gRPC health and reflection for probes and tooling.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
}

func New(opts Options) *Server {
	kasp := keepalive.ServerParameters{
		MaxConnectionIdle:     15 * time.Second,
		MaxConnectionAgeGrace: 5 * time.Second,
		Time:                  20 * time.Second,
		Timeout:               5 * time.Second,
	}
	kaep := keepalive.EnforcementPolicy{
		MinTime:             5 * time.Second,
		PermitWithoutStream: true,
	}

	unaryAuth, streamAuth := middleware.NewServiceRoleInterceptors(
		[]byte(opts.JWTSecret),
		[]string{"/" + healthpb.Health_ServiceDesc.ServiceName + "/"},
	)

	g := grpc.NewServer(
		grpc.KeepaliveParams(kasp),
		grpc.KeepaliveEnforcementPolicy(kaep),
		grpc.ChainUnaryInterceptor(middleware.UnaryLogger, unaryAuth),
		grpc.ChainStreamInterceptor(middleware.StreamLogger, streamAuth),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(g, hs)
	reflection.Register(g)

	interval := opts.CheckInterval
	if interval <= 0 {
		interval = defaultCheckInterval
	}

	s := &Server{grpc: g, health: hs, db: opts.DB, interval: interval}
	s.setStatus(opts.DB != nil)
	return s
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// WatchDatabase re-probes the database until ctx ends and flips the health status to match.
func (s *Server) WatchDatabase(ctx context.Context) {
	if s.db == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := s.db.PingContext(pingCtx)
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		logger.Warn("grpc health: database unreachable", zap.Error(err))
	}
	s.setStatus(err == nil)
}

func (s *Server) setStatus(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
