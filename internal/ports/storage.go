package ports

import (
	"context"
	"errors"
	"time"

	"github.com/alejandrodnm/dicetrack/internal/domain"
)

// ErrNotFound lo devuelven (envuelto) los lookups por ID cuando la entidad
// no existe. Los consumidores lo detectan con errors.Is.
var ErrNotFound = errors.New("not found")

// Storage persiste jugadores, partidas, tiradas y puntuaciones.
// El motor de análisis nunca lo toca: consume logs ya cargados.
type Storage interface {
	// CreatePlayer registra un jugador nuevo con el nombre dado.
	CreatePlayer(ctx context.Context, name string) (domain.Player, error)

	// RenamePlayer cambia el nombre actual conservando el anterior como alias.
	RenamePlayer(ctx context.Context, playerID, name string) error

	// ListPlayers devuelve todos los jugadores por fecha de alta.
	ListPlayers(ctx context.Context) ([]domain.Player, error)

	// GetPlayer devuelve un jugador por ID.
	GetPlayer(ctx context.Context, playerID string) (domain.Player, error)

	// CreateGame persiste una partida nueva junto con su roster.
	// El orden del roster define el turn order.
	CreateGame(ctx context.Context, game domain.Game, roster []domain.GamePlayer) error

	// GetGame devuelve una partida por ID.
	GetGame(ctx context.Context, gameID string) (domain.Game, error)

	// GameRoster devuelve los participantes ordenados por turn order.
	GameRoster(ctx context.Context, gameID string) ([]domain.GamePlayer, error)

	// EndGame cierra la partida y registra las puntuaciones finales.
	EndGame(ctx context.Context, gameID string, endedAt time.Time, scores []domain.FinalScore) error

	// AddRoll persiste una tirada. El histórico es append-only:
	// nunca hay update ni delete de tiradas.
	AddRoll(ctx context.Context, roll domain.Roll) error

	// GameRolls devuelve las tiradas de una partida en orden de registro.
	GameRolls(ctx context.Context, gameID string) (domain.RollLog, error)

	// PlayerRolls devuelve el histórico completo de un jugador.
	PlayerRolls(ctx context.Context, playerID string) (domain.RollLog, error)

	// AllRolls devuelve todas las tiradas registradas.
	AllRolls(ctx context.Context) (domain.RollLog, error)

	// AllScores devuelve todas las puntuaciones finales registradas.
	AllScores(ctx context.Context) ([]domain.FinalScore, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
