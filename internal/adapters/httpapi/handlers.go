package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alejandrodnm/dicetrack/internal/domain"
	"github.com/alejandrodnm/dicetrack/internal/ports"
	"github.com/alejandrodnm/dicetrack/internal/tracker"
)

type createPlayerRequest struct {
	Name string `json:"name"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type createGameRequest struct {
	PlayerIDs []string `json:"player_ids"`
	Notes     string   `json:"notes"`
}

type recordRollRequest struct {
	Sum   int   `json:"sum"`
	Faces []int `json:"faces,omitempty"`
}

type endGameRequest struct {
	Scores map[string]int `json:"scores"`
}

// createPlayer maneja POST /api/players.
func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		errorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	player, err := s.storage.CreatePlayer(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		slog.Error("create player failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}
	jsonResponse(w, http.StatusCreated, player)
}

// listPlayers maneja GET /api/players.
func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.storage.ListPlayers(r.Context())
	if err != nil {
		slog.Error("list players failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}
	jsonResponse(w, http.StatusOK, players)
}

// renamePlayer maneja PUT /api/players/{id}/name.
func (s *Server) renamePlayer(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		errorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.storage.RenamePlayer(r.Context(), r.PathValue("id"), strings.TrimSpace(req.Name)); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "player not found")
			return
		}
		slog.Error("rename player failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// playerFairness maneja GET /api/players/{id}/fairness.
func (s *Server) playerFairness(w http.ResponseWriter, r *http.Request) {
	report, err := s.tracker.PlayerFairness(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("player fairness failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "report error")
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// createGame maneja POST /api/games.
func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	game, err := s.tracker.StartGame(r.Context(), req.PlayerIDs, req.Notes)
	if err != nil {
		if errors.Is(err, tracker.ErrEmptyRoster) {
			errorResponse(w, http.StatusBadRequest, "player_ids is required")
			return
		}
		slog.Error("create game failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}
	jsonResponse(w, http.StatusCreated, game)
}

// currentTurn maneja GET /api/games/{id}/turn.
func (s *Server) currentTurn(w http.ResponseWriter, r *http.Request) {
	gp, err := s.tracker.CurrentTurn(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "game not found")
			return
		}
		slog.Error("current turn failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}
	jsonResponse(w, http.StatusOK, gp)
}

// recordRoll maneja POST /api/games/{id}/rolls.
func (s *Server) recordRoll(w http.ResponseWriter, r *http.Request) {
	var req recordRollRequest
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	roll, err := s.tracker.RecordRoll(r.Context(), r.PathValue("id"), req.Sum, req.Faces...)
	switch {
	case errors.Is(err, tracker.ErrImpossibleSum):
		errorResponse(w, http.StatusUnprocessableEntity, "sum not achievable with the game's die set")
		return
	case errors.Is(err, tracker.ErrGameEnded):
		errorResponse(w, http.StatusConflict, "game already ended")
		return
	case errors.Is(err, ports.ErrNotFound):
		errorResponse(w, http.StatusNotFound, "game not found")
		return
	case err != nil:
		slog.Error("record roll failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}
	jsonResponse(w, http.StatusCreated, roll)
}

// endGame maneja POST /api/games/{id}/end.
func (s *Server) endGame(w http.ResponseWriter, r *http.Request) {
	var req endGameRequest
	if err := parseJSONBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.tracker.EndGame(r.Context(), r.PathValue("id"), req.Scores); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "game not found or already ended")
			return
		}
		slog.Error("end game failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// gameFairness maneja GET /api/games/{id}/fairness.
func (s *Server) gameFairness(w http.ResponseWriter, r *http.Request) {
	report, err := s.tracker.GameFairness(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "game not found")
			return
		}
		slog.Error("game fairness failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "report error")
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// gameIndependence maneja GET /api/games/{id}/independence.
// Con ?coarse=1 agrupa los resultados en low/mid/high.
func (s *Server) gameIndependence(w http.ResponseWriter, r *http.Request) {
	coarse := r.URL.Query().Get("coarse") == "1"
	report, err := s.tracker.GameIndependence(r.Context(), r.PathValue("id"), coarse)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "game not found")
			return
		}
		slog.Error("game independence failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "report error")
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// lifetimeFairness maneja GET /api/lifetime/fairness.
func (s *Server) lifetimeFairness(w http.ResponseWriter, r *http.Request) {
	report, err := s.tracker.LifetimeFairness(r.Context())
	if err != nil {
		slog.Error("lifetime fairness failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "report error")
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// lifetimeIndependence maneja GET /api/lifetime/independence.
func (s *Server) lifetimeIndependence(w http.ResponseWriter, r *http.Request) {
	coarse := r.URL.Query().Get("coarse") == "1"
	report, err := s.tracker.LifetimeIndependence(r.Context(), coarse)
	if err != nil {
		slog.Error("lifetime independence failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "report error")
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// scoresSummary maneja GET /api/scores.
func (s *Server) scoresSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.tracker.ScoresSummary(r.Context())
	if err != nil {
		slog.Error("scores summary failed", "err", err)
		errorResponse(w, http.StatusInternalServerError, "report error")
		return
	}
	if rows == nil {
		rows = []domain.ScoreSummary{}
	}
	jsonResponse(w, http.StatusOK, rows)
}
