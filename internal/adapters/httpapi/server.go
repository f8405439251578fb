package httpapi

// server.go — superficie JSON de solo-tracking. Sin auth ni frontend:
// los reportes salen como datos estructurados y otro proceso los pinta.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/dicetrack/internal/ports"
	"github.com/alejandrodnm/dicetrack/internal/tracker"
)

// Server expone el tracker por HTTP.
type Server struct {
	addr    string
	tracker *tracker.Tracker
	storage ports.Storage
	limiter *rate.Limiter
}

// NewServer crea el servidor. rps/burst controlan el limitador global;
// con rps <= 0 se usan 20 req/s con burst 40.
func NewServer(addr string, t *tracker.Tracker, storage ports.Storage, rps float64, burst int) *Server {
	if rps <= 0 {
		rps = 20
		burst = 40
	}
	if burst <= 0 {
		burst = int(rps)
	}
	return &Server{
		addr:    addr,
		tracker: t,
		storage: storage,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Handler construye el mux con todas las rutas.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, withLogging(withRateLimit(s.limiter, h)))
	}

	route("POST /api/players", s.createPlayer)
	route("GET /api/players", s.listPlayers)
	route("PUT /api/players/{id}/name", s.renamePlayer)
	route("GET /api/players/{id}/fairness", s.playerFairness)

	route("POST /api/games", s.createGame)
	route("GET /api/games/{id}/turn", s.currentTurn)
	route("POST /api/games/{id}/rolls", s.recordRoll)
	route("POST /api/games/{id}/end", s.endGame)
	route("GET /api/games/{id}/fairness", s.gameFairness)
	route("GET /api/games/{id}/independence", s.gameIndependence)

	route("GET /api/lifetime/fairness", s.lifetimeFairness)
	route("GET /api/lifetime/independence", s.lifetimeIndependence)
	route("GET /api/scores", s.scoresSummary)

	return mux
}

// Run arranca el servidor y lo apaga limpiamente al cancelar el contexto.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("httpapi.Run: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi.Run: shutdown: %w", err)
	}
	slog.Info("http server stopped")
	return nil
}
