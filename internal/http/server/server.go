// Package server encapsula el ciclo de vida del servidor HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/cuentas/internal/observability/logger"
)

// Server envuelve http.Server con arranque y apagado ordenado.
type Server struct {
	httpSrv *http.Server
}

// New crea el servidor con timeouts razonables para una API pública.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Run levanta el listener y bloquea hasta que ctx se cancele; ahí
// drena las conexiones en curso con un deadline de 10s.
func (s *Server) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("http.server"))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", logger.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
