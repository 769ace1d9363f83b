package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/grpcwire"
)

// Options configures the composite server. HTTPAddress hosts the JSON-RPC
// endpoint, the REST mapping, the agent card, health, and metrics; an empty
// GRPCAddress disables the gRPC listener.
type Options struct {
	HTTPAddress string
	GRPCAddress string

	// ExtendedCard, when set, is served to authenticated callers via
	// agent/getAuthenticatedExtendedCard and its REST/gRPC equivalents.
	ExtendedCard *a2a.AgentCard

	// ShutdownTimeout bounds graceful drain on Stop. Zero means 10s.
	ShutdownTimeout time.Duration

	// GRPCServerOptions are appended to the gRPC server construction.
	GRPCServerOptions []grpc.ServerOption
}

// Server hosts one agent behind all three wire transports.
type Server struct {
	opts       Options
	card       *a2a.AgentCard
	handler    RequestHandler
	httpServer *http.Server
	grpcServer *grpc.Server
	log        *slog.Logger
}

// New assembles a server around a card and a request handler.
func New(card *a2a.AgentCard, handler RequestHandler, opts Options) *Server {
	if opts.HTTPAddress == "" {
		opts.HTTPAddress = ":8080"
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		opts:    opts,
		card:    card,
		handler: handler,
		log:     slog.Default().With("component", "server"),
	}

	r := chi.NewRouter()
	r.Use(corsMiddleware, loggingMiddleware(s.log), metricsMiddleware)

	jsonrpc := NewJSONRPCServer(handler, card, opts.ExtendedCard)
	r.Post("/", jsonrpc.ServeHTTP)

	rest := NewRESTServer(handler, opts.ExtendedCard)
	rest.Routes(r)

	r.Get(a2a.WellKnownCardPath, s.handleCard)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              opts.HTTPAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if opts.GRPCAddress != "" {
		s.grpcServer = grpc.NewServer(opts.GRPCServerOptions...)
		grpcwire.RegisterA2AServiceServer(s.grpcServer, NewGRPCService(handler, card, opts.ExtendedCard))
	}

	return s
}

func (s *Server) handleCard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.card)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Run serves until ctx is canceled, then drains gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("http server starting", "address", s.opts.HTTPAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	if s.grpcServer != nil {
		g.Go(func() error {
			lis, err := net.Listen("tcp", s.opts.GRPCAddress)
			if err != nil {
				return fmt.Errorf("grpc listen failed: %w", err)
			}
			s.log.Info("grpc server starting", "address", s.opts.GRPCAddress)
			if err := s.grpcServer.Serve(lis); err != nil {
				return fmt.Errorf("grpc server failed: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return s.Stop()
	})

	return g.Wait()
}

// Stop drains in-flight requests, running agents included, within the
// configured timeout.
func (s *Server) Stop() error {
	s.log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if s.grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.grpcServer.Stop()
		}
	}
	if closer, ok := s.handler.(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("handler close: %w", err))
		}
	}
	return errors.Join(errs...)
}
