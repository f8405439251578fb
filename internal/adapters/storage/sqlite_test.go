package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/dicetrack/internal/adapters/storage"
	"github.com/alejandrodnm/dicetrack/internal/domain"
	"github.com/alejandrodnm/dicetrack/internal/ports"
)

func openStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func startGame(t *testing.T, db *storage.SQLiteStorage, players ...domain.Player) domain.Game {
	t.Helper()
	game := domain.Game{
		ID:        uuid.NewString(),
		DieSet:    domain.StandardCatanSet(),
		StartedAt: time.Now().UTC(),
	}
	roster := make([]domain.GamePlayer, len(players))
	for i, p := range players {
		roster[i] = domain.GamePlayer{
			ID:          uuid.NewString(),
			GameID:      game.ID,
			PlayerID:    p.ID,
			TurnOrder:   i,
			DisplayName: p.Name,
			JoinedAt:    game.StartedAt,
		}
	}
	require.NoError(t, db.CreateGame(context.Background(), game, roster))
	return game
}

func TestSQLiteStorage_CreateAndListPlayers(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	ana, err := db.CreatePlayer(ctx, "Ana")
	require.NoError(t, err)
	assert.NotEmpty(t, ana.ID)

	_, err = db.CreatePlayer(ctx, "Bruno")
	require.NoError(t, err)

	players, err := db.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Ana", players[0].Name)
}

func TestSQLiteStorage_RenameKeepsWorking(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	ana, err := db.CreatePlayer(ctx, "Ana")
	require.NoError(t, err)

	require.NoError(t, db.RenamePlayer(ctx, ana.ID, "Ana María"))

	got, err := db.GetPlayer(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", got.Name)

	// Rename de un jugador inexistente falla, no inserta nada
	assert.ErrorIs(t, db.RenamePlayer(ctx, "nope", "X"), ports.ErrNotFound)
}

func TestSQLiteStorage_GameRoundTrip(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	ana, err := db.CreatePlayer(ctx, "Ana")
	require.NoError(t, err)
	bruno, err := db.CreatePlayer(ctx, "Bruno")
	require.NoError(t, err)

	game := startGame(t, db, ana, bruno)

	got, err := db.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, game.ID, got.ID)
	assert.True(t, got.Active())
	// El set de dados viaja intacto por el JSON de caras
	assert.Equal(t, "2d6", got.DieSet.Label)
	require.Len(t, got.DieSet.Dice, 2)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got.DieSet.Dice[0].Faces)

	roster, err := db.GameRoster(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, ana.ID, roster[0].PlayerID)
	assert.Equal(t, 0, roster[0].TurnOrder)
	assert.Equal(t, "Bruno", roster[1].DisplayName)
}

func TestSQLiteStorage_RollsRoundTrip(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	ana, err := db.CreatePlayer(ctx, "Ana")
	require.NoError(t, err)
	game := startGame(t, db, ana)

	rolls := []domain.Roll{
		{ID: uuid.NewString(), GameID: game.ID, PlayerID: ana.ID, Sum: 7, Faces: []int{3, 4}, IdxInGame: 0, RolledAt: time.Now().UTC()},
		{ID: uuid.NewString(), GameID: game.ID, PlayerID: ana.ID, Sum: 12, IdxInGame: 1, RolledAt: time.Now().UTC()},
	}
	for _, r := range rolls {
		require.NoError(t, db.AddRoll(ctx, r))
	}

	log, err := db.GameRolls(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, 7, log[0].Sum)
	assert.Equal(t, []int{3, 4}, log[0].Faces)
	assert.Nil(t, log[1].Faces) // tirada sin caras anotadas

	byPlayer, err := db.PlayerRolls(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, byPlayer, 2)

	all, err := db.AllRolls(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteStorage_EndGame(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	ana, err := db.CreatePlayer(ctx, "Ana")
	require.NoError(t, err)
	game := startGame(t, db, ana)

	scores := []domain.FinalScore{{
		ID: uuid.NewString(), GameID: game.ID, PlayerID: ana.ID, Score: 10, CreatedAt: time.Now().UTC(),
	}}
	require.NoError(t, db.EndGame(ctx, game.ID, time.Now().UTC(), scores))

	got, err := db.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.False(t, got.Active())

	all, err := db.AllScores(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 10, all[0].Score)

	// Cerrar dos veces falla
	assert.ErrorIs(t, db.EndGame(ctx, game.ID, time.Now().UTC(), nil), ports.ErrNotFound)
}

func TestSQLiteStorage_GetGame_NotFound(t *testing.T) {
	db := openStore(t)

	_, err := db.GetGame(context.Background(), "nope")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = db.GetPlayer(context.Background(), "nope")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
