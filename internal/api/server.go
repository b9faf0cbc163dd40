// Package api exposes the studio command surface over HTTP with gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"charmstudio/internal/charm"
	"charmstudio/internal/logging"
	"charmstudio/internal/phase"
	"charmstudio/internal/studio"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Studio is the part of studio.Service the API drives.
type Studio interface {
	Snapshot() studio.View
	Charms() []charm.Charm
	Charm(id string) (charm.Charm, error)
	Generation() phase.State
	Forge(ctx context.Context, prompt string, t charm.Type, opts ...studio.ForgeOption) (*charm.Charm, error)
	BeginProve(id string) (*phase.Pending, error)
	BeginBroadcast(id string) (*phase.Pending, error)
	BeginBeam(id string, target charm.Chain) (*phase.Pending, error)
}

// Background runs accepted phase runs after their request has returned.
type Background struct {
	ctx context.Context
	g   errgroup.Group
}

// NewBackground creates a runner whose runs are cancelled with ctx.
func NewBackground(ctx context.Context) *Background {
	return &Background{ctx: ctx}
}

// Go waits on p in the background. Failures are logged, not propagated.
func (b *Background) Go(p *phase.Pending) {
	b.g.Go(func() error {
		c, err := p.Wait(b.ctx)
		if err != nil {
			logging.ServerError("background %s failed: %v", p.Key(), err)
			return nil
		}
		logging.Server("background %s done: charm %s is %s", p.Key(), c.ID, c.Status)
		return nil
	})
}

// Wait blocks until every background run has returned.
func (b *Background) Wait() {
	_ = b.g.Wait()
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(s Studio, bg *Background) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", HealthHandler())

	api := r.Group("/api")
	api.GET("/studio", SnapshotHandler(s))
	api.GET("/charms", ListCharmsHandler(s))
	api.GET("/charms/:id", GetCharmHandler(s))
	api.POST("/charms", ForgeHandler(s))
	api.POST("/charms/:id/prove", ProveHandler(s, bg))
	api.POST("/charms/:id/broadcast", BroadcastHandler(s, bg))
	api.POST("/charms/:id/beam", BeamHandler(s, bg))
	api.GET("/generation", GenerationHandler(s))
	api.GET("/navigator", ListTopicsHandler())
	api.GET("/navigator/:slug", GetTopicHandler())
	return r
}

// requestLogger logs each request to the server category.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Get(logging.CategoryServer).Debug("%s %s -> %d (%v)",
			c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// Server owns the HTTP listener and the background runs it accepted.
type Server struct {
	http            *http.Server
	bg              *Background
	shutdownTimeout time.Duration
}

// NewServer creates a server for s on addr. Background runs are cancelled
// when ctx is.
func NewServer(ctx context.Context, s Studio, addr string, shutdownTimeout time.Duration) *Server {
	bg := NewBackground(ctx)
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(s, bg),
			ReadHeaderTimeout: 10 * time.Second,
		},
		bg:              bg,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is done, then shuts down gracefully and waits for
// accepted runs.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logging.Server("listening on %s", ln.Addr())

	// A serve failure cancels gctx so the shutdown goroutine still returns.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		logging.Server("shutting down")
		return s.http.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.bg.Wait()
	return err
}
