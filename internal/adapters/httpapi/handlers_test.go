package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/dicetrack/internal/adapters/httpapi"
	"github.com/alejandrodnm/dicetrack/internal/adapters/notify"
	"github.com/alejandrodnm/dicetrack/internal/adapters/storage"
	"github.com/alejandrodnm/dicetrack/internal/domain"
	"github.com/alejandrodnm/dicetrack/internal/tracker"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tr, err := tracker.New(tracker.DefaultConfig(), store, notify.NewConsoleWriter(&bytes.Buffer{}, 0.05))
	require.NoError(t, err)

	return httpapi.NewServer(":0", tr, store, 0, 0).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createPlayer(t *testing.T, h http.Handler, name string) domain.Player {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/players", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Player](t, rec)
}

func createGame(t *testing.T, h http.Handler, playerIDs ...string) domain.Game {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/games", map[string]any{"player_ids": playerIDs})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Game](t, rec)
}

func TestPlayers_CreateListRename(t *testing.T) {
	h := newTestHandler(t)

	ana := createPlayer(t, h, "Ana")
	assert.NotEmpty(t, ana.ID)
	assert.Equal(t, "Ana", ana.Name)

	createPlayer(t, h, "Bruno")

	rec := doJSON(t, h, http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	players := decode[[]domain.Player](t, rec)
	assert.Len(t, players, 2)

	rec = doJSON(t, h, http.MethodPut, "/api/players/"+ana.ID+"/name", map[string]string{"name": "Ana María"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/players/nope/name", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayers_CreateValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/players", map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGames_FullFlow(t *testing.T) {
	h := newTestHandler(t)

	ana := createPlayer(t, h, "Ana")
	bruno := createPlayer(t, h, "Bruno")
	game := createGame(t, h, ana.ID, bruno.ID)
	require.NotEmpty(t, game.ID)

	// Turno inicial: primer jugador del roster
	rec := doJSON(t, h, http.MethodGet, "/api/games/"+game.ID+"/turn", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	turn := decode[domain.GamePlayer](t, rec)
	assert.Equal(t, ana.ID, turn.PlayerID)

	// Tirada válida: avanza el turno
	rec = doJSON(t, h, http.MethodPost, "/api/games/"+game.ID+"/rolls", map[string]any{"sum": 7, "faces": []int{3, 4}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	roll := decode[domain.Roll](t, rec)
	assert.Equal(t, ana.ID, roll.PlayerID)
	assert.Equal(t, []int{3, 4}, roll.Faces)

	rec = doJSON(t, h, http.MethodGet, "/api/games/"+game.ID+"/turn", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bruno.ID, decode[domain.GamePlayer](t, rec).PlayerID)

	// Reporte de la partida
	rec = doJSON(t, h, http.MethodGet, "/api/games/"+game.ID+"/fairness", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fairness := decode[domain.FairnessReport](t, rec)
	assert.Equal(t, 1, fairness.TotalRolls)

	// Cierre con puntuaciones
	rec = doJSON(t, h, http.MethodPost, "/api/games/"+game.ID+"/end",
		map[string]any{"scores": map[string]int{ana.ID: 10, bruno.ID: 8}})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/scores", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]domain.ScoreSummary](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0].Name)
}

func TestGames_CreateWithoutRoster(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/games", map[string]any{"player_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRolls_ImpossibleSum(t *testing.T) {
	h := newTestHandler(t)

	ana := createPlayer(t, h, "Ana")
	game := createGame(t, h, ana.ID)

	rec := doJSON(t, h, http.MethodPost, "/api/games/"+game.ID+"/rolls", map[string]any{"sum": 13})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRolls_GameEnded(t *testing.T) {
	h := newTestHandler(t)

	ana := createPlayer(t, h, "Ana")
	game := createGame(t, h, ana.ID)

	rec := doJSON(t, h, http.MethodPost, "/api/games/"+game.ID+"/end",
		map[string]any{"scores": map[string]int{ana.ID: 10}})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/games/"+game.ID+"/rolls", map[string]any{"sum": 7})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRolls_GameNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/games/nope/rolls", map[string]any{"sum": 7})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndependence_CoarseQueryParam(t *testing.T) {
	h := newTestHandler(t)

	ana := createPlayer(t, h, "Ana")
	bruno := createPlayer(t, h, "Bruno")
	game := createGame(t, h, ana.ID, bruno.ID)
	for _, sum := range []int{7, 7, 4, 10} {
		rec := doJSON(t, h, http.MethodPost, "/api/games/"+game.ID+"/rolls", map[string]any{"sum": sum})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/games/%s/independence?coarse=1", game.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[domain.ContingencyReport](t, rec)
	assert.Len(t, report.BinLabels, 3)
	assert.Equal(t, 4, report.GrandTotal)
}

func TestPlayerFairness_NoRollsYet(t *testing.T) {
	h := newTestHandler(t)

	ana := createPlayer(t, h, "Ana")

	// Un jugador sin tiradas debe recibir un reporte marcado, no un body vacío
	rec := doJSON(t, h, http.MethodGet, "/api/players/"+ana.ID+"/fairness", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[domain.FairnessReport](t, rec)
	assert.True(t, report.Insufficient)
	assert.Len(t, report.Bins, 11)
}

func TestLifetime_EmptyStorage(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/lifetime/fairness", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[domain.FairnessReport](t, rec).Insufficient)

	rec = doJSON(t, h, http.MethodGet, "/api/lifetime/independence", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/scores", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
