package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/dicetrack/internal/analytics"
	"github.com/alejandrodnm/dicetrack/internal/domain"
	"github.com/alejandrodnm/dicetrack/internal/ports"
)

var (
	// ErrEmptyRoster se devuelve al arrancar una partida sin jugadores.
	ErrEmptyRoster = errors.New("game needs at least one player")
	// ErrImpossibleSum se devuelve al registrar una suma que el set de
	// dados no puede producir.
	ErrImpossibleSum = errors.New("sum not achievable with the game's die set")
	// ErrGameEnded se devuelve al registrar tiradas en una partida cerrada.
	ErrGameEnded = errors.New("game already ended")
)

// Config contiene la configuración del tracker.
type Config struct {
	// DieSet es el set usado para partidas nuevas.
	DieSet domain.DieSet
	// Analysis parametriza el motor de análisis.
	Analysis analytics.Config
	// CoarseLowMax y CoarseHighMin definen los cortes low/mid/high del
	// binning grueso del test de independencia.
	CoarseLowMax  int
	CoarseHighMin int
}

// DefaultConfig devuelve una configuración sensata: 2d6 de Catan,
// p-values exactos y cortes 2-6 / 7 / 8-12.
func DefaultConfig() Config {
	return Config{
		DieSet:        domain.StandardCatanSet(),
		Analysis:      analytics.DefaultConfig(),
		CoarseLowMax:  6,
		CoarseHighMin: 8,
	}
}

// Tracker es el servicio de aplicación: orquesta partidas, tiradas y
// reportes. El estado de sesión (de quién es el turno) se deriva del
// storage, no de globals — cada llamada es reproducible.
type Tracker struct {
	cfg      Config
	storage  ports.Storage
	reporter ports.Reporter
	analyzer *analytics.Analyzer
	dist     domain.Distribution
}

// New crea un Tracker con las dependencias inyectadas. Valida el set de
// dados y precalcula su distribución teórica: un set inválido falla aquí,
// antes de cualquier cálculo.
func New(cfg Config, storage ports.Storage, reporter ports.Reporter) (*Tracker, error) {
	if len(cfg.DieSet.Dice) == 0 {
		cfg.DieSet = domain.StandardCatanSet()
	}
	dist, err := cfg.DieSet.Distribution()
	if err != nil {
		return nil, fmt.Errorf("tracker.New: %w", err)
	}
	if cfg.CoarseLowMax == 0 && cfg.CoarseHighMin == 0 {
		outcomes := dist.Outcomes()
		mid := outcomes[len(outcomes)/2]
		cfg.CoarseLowMax, cfg.CoarseHighMin = mid-1, mid+1
	}
	return &Tracker{
		cfg:      cfg,
		storage:  storage,
		reporter: reporter,
		analyzer: analytics.New(cfg.Analysis),
		dist:     dist,
	}, nil
}

// Distribution devuelve la distribución teórica del set configurado.
func (t *Tracker) Distribution() domain.Distribution {
	return t.dist
}

// StartGame crea una partida con el roster dado. El orden del slice define
// el turn order y se congela el nombre de cada jugador en ese momento.
func (t *Tracker) StartGame(ctx context.Context, playerIDs []string, notes string) (domain.Game, error) {
	if len(playerIDs) == 0 {
		return domain.Game{}, fmt.Errorf("tracker.StartGame: %w", ErrEmptyRoster)
	}

	now := time.Now().UTC()
	game := domain.Game{
		ID:        uuid.NewString(),
		DieSet:    t.cfg.DieSet,
		Notes:     notes,
		StartedAt: now,
	}

	roster := make([]domain.GamePlayer, 0, len(playerIDs))
	for i, pid := range playerIDs {
		p, err := t.storage.GetPlayer(ctx, pid)
		if err != nil {
			return domain.Game{}, fmt.Errorf("tracker.StartGame: %w", err)
		}
		roster = append(roster, domain.GamePlayer{
			ID:          uuid.NewString(),
			GameID:      game.ID,
			PlayerID:    p.ID,
			TurnOrder:   i,
			DisplayName: p.Name,
			JoinedAt:    now,
		})
	}

	if err := t.storage.CreateGame(ctx, game, roster); err != nil {
		return domain.Game{}, fmt.Errorf("tracker.StartGame: %w", err)
	}

	slog.Info("game started", "game", game.ID, "players", len(roster), "die_set", game.DieSet.Label)
	return game, nil
}

// CurrentTurn devuelve el jugador al que le toca tirar: el turno avanza
// solo, una tirada por turno, en orden de roster y cíclico.
func (t *Tracker) CurrentTurn(ctx context.Context, gameID string) (domain.GamePlayer, error) {
	roster, err := t.storage.GameRoster(ctx, gameID)
	if err != nil {
		return domain.GamePlayer{}, fmt.Errorf("tracker.CurrentTurn: %w", err)
	}
	if len(roster) == 0 {
		return domain.GamePlayer{}, fmt.Errorf("tracker.CurrentTurn: %w", ErrEmptyRoster)
	}
	log, err := t.storage.GameRolls(ctx, gameID)
	if err != nil {
		return domain.GamePlayer{}, fmt.Errorf("tracker.CurrentTurn: %w", err)
	}
	return roster[len(log)%len(roster)], nil
}

// RecordRoll registra una tirada para el jugador en turno y avanza el
// turno. La suma debe ser alcanzable con el set de la partida; si se dan
// las caras individuales, deben sumar lo declarado.
func (t *Tracker) RecordRoll(ctx context.Context, gameID string, sum int, faces ...int) (domain.Roll, error) {
	game, err := t.storage.GetGame(ctx, gameID)
	if err != nil {
		return domain.Roll{}, fmt.Errorf("tracker.RecordRoll: %w", err)
	}
	if !game.Active() {
		return domain.Roll{}, fmt.Errorf("tracker.RecordRoll: %w", ErrGameEnded)
	}

	dist, err := game.DieSet.Distribution()
	if err != nil {
		return domain.Roll{}, fmt.Errorf("tracker.RecordRoll: %w", err)
	}
	if !dist.Contains(sum) {
		return domain.Roll{}, fmt.Errorf("tracker.RecordRoll: sum %d: %w", sum, ErrImpossibleSum)
	}
	if len(faces) > 0 {
		facesSum := 0
		for _, f := range faces {
			facesSum += f
		}
		if facesSum != sum {
			return domain.Roll{}, fmt.Errorf("tracker.RecordRoll: faces sum %d != declared sum %d", facesSum, sum)
		}
	}

	roster, err := t.storage.GameRoster(ctx, gameID)
	if err != nil {
		return domain.Roll{}, fmt.Errorf("tracker.RecordRoll: %w", err)
	}
	if len(roster) == 0 {
		return domain.Roll{}, fmt.Errorf("tracker.RecordRoll: %w", ErrEmptyRoster)
	}
	log, err := t.storage.GameRolls(ctx, gameID)
	if err != nil {
		return domain.Roll{}, fmt.Errorf("tracker.RecordRoll: %w", err)
	}

	actor := roster[len(log)%len(roster)]
	roll := domain.Roll{
		ID:        uuid.NewString(),
		GameID:    gameID,
		PlayerID:  actor.PlayerID,
		Sum:       sum,
		Faces:     faces,
		IdxInGame: len(log),
		RolledAt:  time.Now().UTC(),
	}

	if err := t.storage.AddRoll(ctx, roll); err != nil {
		return domain.Roll{}, fmt.Errorf("tracker.RecordRoll: %w", err)
	}

	slog.Debug("roll recorded", "game", gameID, "player", actor.DisplayName, "sum", sum, "idx", roll.IdxInGame)
	return roll, nil
}

// EndGame cierra la partida con las puntuaciones finales por jugador.
func (t *Tracker) EndGame(ctx context.Context, gameID string, scores map[string]int) error {
	now := time.Now().UTC()
	finals := make([]domain.FinalScore, 0, len(scores))
	for pid, score := range scores {
		finals = append(finals, domain.FinalScore{
			ID:        uuid.NewString(),
			GameID:    gameID,
			PlayerID:  pid,
			Score:     score,
			CreatedAt: now,
		})
	}
	if err := t.storage.EndGame(ctx, gameID, now, finals); err != nil {
		return fmt.Errorf("tracker.EndGame: %w", err)
	}
	slog.Info("game ended", "game", gameID, "scores", len(finals))
	return nil
}

// GameFairness calcula el reporte de bondad de ajuste de una partida,
// contra la distribución teórica de SU set de dados.
func (t *Tracker) GameFairness(ctx context.Context, gameID string) (domain.FairnessReport, error) {
	game, err := t.storage.GetGame(ctx, gameID)
	if err != nil {
		return domain.FairnessReport{}, fmt.Errorf("tracker.GameFairness: %w", err)
	}
	dist, err := game.DieSet.Distribution()
	if err != nil {
		return domain.FairnessReport{}, fmt.Errorf("tracker.GameFairness: %w", err)
	}
	log, err := t.storage.GameRolls(ctx, gameID)
	if err != nil {
		return domain.FairnessReport{}, fmt.Errorf("tracker.GameFairness: %w", err)
	}
	return t.analyzer.GoodnessOfFit(log, dist), nil
}

// PlayerFairness calcula el reporte sobre el histórico completo de un jugador.
func (t *Tracker) PlayerFairness(ctx context.Context, playerID string) (domain.FairnessReport, error) {
	log, err := t.storage.PlayerRolls(ctx, playerID)
	if err != nil {
		return domain.FairnessReport{}, fmt.Errorf("tracker.PlayerFairness: %w", err)
	}
	return t.analyzer.GoodnessOfFit(log, t.dist), nil
}

// LifetimeFairness calcula el reporte sobre todas las tiradas registradas.
func (t *Tracker) LifetimeFairness(ctx context.Context) (domain.FairnessReport, error) {
	log, err := t.storage.AllRolls(ctx)
	if err != nil {
		return domain.FairnessReport{}, fmt.Errorf("tracker.LifetimeFairness: %w", err)
	}
	return t.analyzer.GoodnessOfFit(log, t.dist), nil
}

// GameIndependence ejecuta el test jugadores × resultados de una partida.
// Con coarse, agrupa los resultados en low/mid/high.
func (t *Tracker) GameIndependence(ctx context.Context, gameID string, coarse bool) (domain.ContingencyReport, error) {
	game, err := t.storage.GetGame(ctx, gameID)
	if err != nil {
		return domain.ContingencyReport{}, fmt.Errorf("tracker.GameIndependence: %w", err)
	}
	dist, err := game.DieSet.Distribution()
	if err != nil {
		return domain.ContingencyReport{}, fmt.Errorf("tracker.GameIndependence: %w", err)
	}
	log, err := t.storage.GameRolls(ctx, gameID)
	if err != nil {
		return domain.ContingencyReport{}, fmt.Errorf("tracker.GameIndependence: %w", err)
	}
	report := t.analyzer.Independence(log, t.binning(dist, coarse))
	t.resolveNames(ctx, &report)
	return report, nil
}

// LifetimeIndependence ejecuta el test jugadores × resultados sobre todo
// el histórico.
func (t *Tracker) LifetimeIndependence(ctx context.Context, coarse bool) (domain.ContingencyReport, error) {
	log, err := t.storage.AllRolls(ctx)
	if err != nil {
		return domain.ContingencyReport{}, fmt.Errorf("tracker.LifetimeIndependence: %w", err)
	}
	report := t.analyzer.Independence(log, t.binning(t.dist, coarse))
	t.resolveNames(ctx, &report)
	return report, nil
}

// ScoresSummary agrega las puntuaciones históricas por jugador.
func (t *Tracker) ScoresSummary(ctx context.Context) ([]domain.ScoreSummary, error) {
	scores, err := t.storage.AllScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracker.ScoresSummary: %w", err)
	}
	players, err := t.storage.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracker.ScoresSummary: %w", err)
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return domain.SummarizeScores(scores, names), nil
}

// Report imprime por el reporter los tres reportes de una partida:
// bondad de ajuste, independencia y resumen de puntuaciones.
func (t *Tracker) Report(ctx context.Context, gameID string, coarse bool) error {
	fairness, err := t.GameFairness(ctx, gameID)
	if err != nil {
		return fmt.Errorf("tracker.Report: %w", err)
	}
	if err := t.reporter.Fairness(ctx, "game "+gameID, fairness); err != nil {
		return fmt.Errorf("tracker.Report: %w", err)
	}

	contingency, err := t.GameIndependence(ctx, gameID, coarse)
	if err != nil {
		return fmt.Errorf("tracker.Report: %w", err)
	}
	if err := t.reporter.Contingency(ctx, contingency); err != nil {
		return fmt.Errorf("tracker.Report: %w", err)
	}
	return nil
}

// LifetimeReport imprime los reportes sobre el histórico completo.
func (t *Tracker) LifetimeReport(ctx context.Context, coarse bool) error {
	fairness, err := t.LifetimeFairness(ctx)
	if err != nil {
		return fmt.Errorf("tracker.LifetimeReport: %w", err)
	}
	if err := t.reporter.Fairness(ctx, "lifetime", fairness); err != nil {
		return fmt.Errorf("tracker.LifetimeReport: %w", err)
	}

	contingency, err := t.LifetimeIndependence(ctx, coarse)
	if err != nil {
		return fmt.Errorf("tracker.LifetimeReport: %w", err)
	}
	if err := t.reporter.Contingency(ctx, contingency); err != nil {
		return fmt.Errorf("tracker.LifetimeReport: %w", err)
	}

	summary, err := t.ScoresSummary(ctx)
	if err != nil {
		return fmt.Errorf("tracker.LifetimeReport: %w", err)
	}
	if err := t.reporter.Scores(ctx, summary); err != nil {
		return fmt.Errorf("tracker.LifetimeReport: %w", err)
	}
	return nil
}

func (t *Tracker) binning(dist domain.Distribution, coarse bool) domain.Binning {
	if coarse {
		return domain.CoarseBins(dist, t.cfg.CoarseLowMax, t.cfg.CoarseHighMin)
	}
	return domain.IdentityBins(dist)
}

// resolveNames sustituye IDs por nombres en las filas del reporte.
// Es cosmético: si el lookup falla, el ID se queda y no rompemos el reporte.
func (t *Tracker) resolveNames(ctx context.Context, report *domain.ContingencyReport) {
	for i, pid := range report.Players {
		p, err := t.storage.GetPlayer(ctx, pid)
		if err != nil {
			continue
		}
		report.Players[i] = p.Name
	}
}
