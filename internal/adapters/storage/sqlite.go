package storage

// sqlite.go — persistencia del tracker en SQLite puro Go (sin CGo).
//
// Estrategia:
//   - Tablas normalizadas: players, player_aliases, dice_sets, games,
//     game_players (con snapshot del nombre y turn order), rolls, final_scores.
//   - `rolls` es append-only: el histórico es inmutable, nunca hay UPDATE.
//   - Los reportes NO se persisten — son derivados y se recalculan bajo demanda.
//   - Los dados de un set se guardan como JSON de multisets de caras, así un
//     dado raro {1,1,2,3,4,5} viaja intacto.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/dicetrack/internal/domain"
	"github.com/alejandrodnm/dicetrack/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

-- Nombres históricos; el rename nunca reescribe partidas pasadas
CREATE TABLE IF NOT EXISTS player_aliases (
    id         TEXT PRIMARY KEY,
    player_id  TEXT NOT NULL REFERENCES players(id),
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS dice_sets (
    id         TEXT PRIMARY KEY,
    label      TEXT NOT NULL,
    faces      TEXT NOT NULL, -- JSON: [[1,2,3,4,5,6],[1,2,3,4,5,6]]
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS games (
    id          TEXT PRIMARY KEY,
    dice_set_id TEXT REFERENCES dice_sets(id),
    notes       TEXT NOT NULL DEFAULT '',
    started_at  DATETIME NOT NULL,
    ended_at    DATETIME
);

CREATE TABLE IF NOT EXISTS game_players (
    id           TEXT PRIMARY KEY,
    game_id      TEXT NOT NULL REFERENCES games(id),
    player_id    TEXT NOT NULL REFERENCES players(id),
    turn_order   INTEGER NOT NULL,
    display_name TEXT NOT NULL,
    joined_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rolls (
    id          TEXT PRIMARY KEY,
    game_id     TEXT NOT NULL REFERENCES games(id),
    player_id   TEXT NOT NULL REFERENCES players(id),
    total       INTEGER NOT NULL,
    faces       TEXT NOT NULL DEFAULT '[]', -- JSON, vacío si solo se anotó la suma
    idx_in_game INTEGER NOT NULL,
    created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS final_scores (
    id         TEXT PRIMARY KEY,
    game_id    TEXT NOT NULL REFERENCES games(id),
    player_id  TEXT NOT NULL REFERENCES players(id),
    score      INTEGER NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_aliases_player ON player_aliases(player_id);
CREATE INDEX IF NOT EXISTS idx_gp_game        ON game_players(game_id, turn_order);
CREATE INDEX IF NOT EXISTS idx_rolls_game     ON rolls(game_id, idx_in_game);
CREATE INDEX IF NOT EXISTS idx_rolls_player   ON rolls(player_id, created_at);
CREATE INDEX IF NOT EXISTS idx_scores_game    ON final_scores(game_id);
`

// SQLiteStorage implementa ports.Storage usando SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada
// y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// CreatePlayer registra un jugador nuevo.
func (s *SQLiteStorage) CreatePlayer(ctx context.Context, name string) (domain.Player, error) {
	p := domain.Player{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt,
	); err != nil {
		return domain.Player{}, fmt.Errorf("storage.CreatePlayer: insert: %w", err)
	}
	return p, nil
}

// RenamePlayer cambia el nombre actual y guarda el anterior como alias.
func (s *SQLiteStorage) RenamePlayer(ctx context.Context, playerID, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.RenamePlayer: begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT name FROM players WHERE id = ?`, playerID).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("storage.RenamePlayer: player %s: %w", playerID, ports.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("storage.RenamePlayer: query: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO player_aliases (id, player_id, name, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), playerID, current, now,
	); err != nil {
		return fmt.Errorf("storage.RenamePlayer: insert alias: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET name = ? WHERE id = ?`, name, playerID,
	); err != nil {
		return fmt.Errorf("storage.RenamePlayer: update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.RenamePlayer: commit: %w", err)
	}
	return nil
}

// ListPlayers devuelve todos los jugadores por fecha de alta.
func (s *SQLiteStorage) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM players ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListPlayers: query: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage.ListPlayers: scan row: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetPlayer devuelve un jugador por ID.
func (s *SQLiteStorage) GetPlayer(ctx context.Context, playerID string) (domain.Player, error) {
	var p domain.Player
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM players WHERE id = ?`, playerID,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Player{}, fmt.Errorf("storage.GetPlayer: player %s: %w", playerID, ports.ErrNotFound)
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("storage.GetPlayer: query: %w", err)
	}
	return p, nil
}

// CreateGame persiste la partida, su set de dados y el roster en una transacción.
func (s *SQLiteStorage) CreateGame(ctx context.Context, game domain.Game, roster []domain.GamePlayer) error {
	faces, err := encodeFaces(game.DieSet)
	if err != nil {
		return fmt.Errorf("storage.CreateGame: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.CreateGame: begin tx: %w", err)
	}
	defer tx.Rollback()

	dieSetID := uuid.NewString()
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dice_sets (id, label, faces, created_at) VALUES (?, ?, ?, ?)`,
		dieSetID, game.DieSet.Label, faces, now,
	); err != nil {
		return fmt.Errorf("storage.CreateGame: insert dice set: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (id, dice_set_id, notes, started_at, ended_at) VALUES (?, ?, ?, ?, NULL)`,
		game.ID, dieSetID, game.Notes, game.StartedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.CreateGame: insert game: %w", err)
	}

	for _, gp := range roster {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_players (id, game_id, player_id, turn_order, display_name, joined_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			gp.ID, gp.GameID, gp.PlayerID, gp.TurnOrder, gp.DisplayName, gp.JoinedAt.UTC(),
		); err != nil {
			return fmt.Errorf("storage.CreateGame: insert roster %s: %w", gp.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.CreateGame: commit: %w", err)
	}
	return nil
}

// GetGame devuelve una partida con su set de dados reconstruido.
func (s *SQLiteStorage) GetGame(ctx context.Context, gameID string) (domain.Game, error) {
	var (
		g       domain.Game
		label   string
		faces   string
		endedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT g.id, g.notes, g.started_at, g.ended_at, d.label, d.faces
		FROM games g JOIN dice_sets d ON d.id = g.dice_set_id
		WHERE g.id = ?
	`, gameID).Scan(&g.ID, &g.Notes, &g.StartedAt, &endedAt, &label, &faces)
	if err == sql.ErrNoRows {
		return domain.Game{}, fmt.Errorf("storage.GetGame: game %s: %w", gameID, ports.ErrNotFound)
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("storage.GetGame: query: %w", err)
	}

	g.DieSet, err = decodeFaces(label, faces)
	if err != nil {
		return domain.Game{}, fmt.Errorf("storage.GetGame: %w", err)
	}
	if endedAt.Valid {
		t := endedAt.Time
		g.EndedAt = &t
	}
	return g, nil
}

// GameRoster devuelve los participantes ordenados por turn order.
func (s *SQLiteStorage) GameRoster(ctx context.Context, gameID string) ([]domain.GamePlayer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, player_id, turn_order, display_name, joined_at
		FROM game_players WHERE game_id = ? ORDER BY turn_order
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("storage.GameRoster: query: %w", err)
	}
	defer rows.Close()

	var roster []domain.GamePlayer
	for rows.Next() {
		var gp domain.GamePlayer
		if err := rows.Scan(&gp.ID, &gp.GameID, &gp.PlayerID, &gp.TurnOrder, &gp.DisplayName, &gp.JoinedAt); err != nil {
			return nil, fmt.Errorf("storage.GameRoster: scan row: %w", err)
		}
		roster = append(roster, gp)
	}
	return roster, rows.Err()
}

// EndGame cierra la partida y registra las puntuaciones en una transacción.
func (s *SQLiteStorage) EndGame(ctx context.Context, gameID string, endedAt time.Time, scores []domain.FinalScore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.EndGame: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE games SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		endedAt.UTC(), gameID,
	)
	if err != nil {
		return fmt.Errorf("storage.EndGame: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.EndGame: game %s already ended or %w", gameID, ports.ErrNotFound)
	}

	for _, sc := range scores {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO final_scores (id, game_id, player_id, score, created_at) VALUES (?, ?, ?, ?, ?)`,
			sc.ID, sc.GameID, sc.PlayerID, sc.Score, sc.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("storage.EndGame: insert score %s: %w", sc.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.EndGame: commit: %w", err)
	}
	return nil
}

// AddRoll persiste una tirada.
func (s *SQLiteStorage) AddRoll(ctx context.Context, roll domain.Roll) error {
	faces := []byte("[]")
	if len(roll.Faces) > 0 {
		var err error
		faces, err = json.Marshal(roll.Faces)
		if err != nil {
			return fmt.Errorf("storage.AddRoll: encode faces: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO rolls (id, game_id, player_id, total, faces, idx_in_game, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		roll.ID, roll.GameID, roll.PlayerID, roll.Sum, string(faces), roll.IdxInGame, roll.RolledAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.AddRoll: insert: %w", err)
	}
	return nil
}

// GameRolls devuelve las tiradas de una partida en orden de registro.
func (s *SQLiteStorage) GameRolls(ctx context.Context, gameID string) (domain.RollLog, error) {
	return s.queryRolls(ctx, `WHERE game_id = ? ORDER BY idx_in_game`, gameID)
}

// PlayerRolls devuelve el histórico completo de un jugador, entre partidas.
func (s *SQLiteStorage) PlayerRolls(ctx context.Context, playerID string) (domain.RollLog, error) {
	return s.queryRolls(ctx, `WHERE player_id = ? ORDER BY created_at, idx_in_game`, playerID)
}

// AllRolls devuelve todas las tiradas registradas.
func (s *SQLiteStorage) AllRolls(ctx context.Context) (domain.RollLog, error) {
	return s.queryRolls(ctx, `ORDER BY created_at, idx_in_game`)
}

func (s *SQLiteStorage) queryRolls(ctx context.Context, clause string, args ...any) (domain.RollLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_id, player_id, total, faces, idx_in_game, created_at FROM rolls `+clause,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.queryRolls: query: %w", err)
	}
	defer rows.Close()

	var log domain.RollLog
	for rows.Next() {
		var (
			r     domain.Roll
			faces string
		)
		if err := rows.Scan(&r.ID, &r.GameID, &r.PlayerID, &r.Sum, &faces, &r.IdxInGame, &r.RolledAt); err != nil {
			return nil, fmt.Errorf("storage.queryRolls: scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(faces), &r.Faces); err != nil {
			return nil, fmt.Errorf("storage.queryRolls: decode faces: %w", err)
		}
		if len(r.Faces) == 0 {
			r.Faces = nil
		}
		log = append(log, r)
	}
	return log, rows.Err()
}

// AllScores devuelve todas las puntuaciones finales registradas.
func (s *SQLiteStorage) AllScores(ctx context.Context) ([]domain.FinalScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_id, player_id, score, created_at FROM final_scores ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("storage.AllScores: query: %w", err)
	}
	defer rows.Close()

	var scores []domain.FinalScore
	for rows.Next() {
		var sc domain.FinalScore
		if err := rows.Scan(&sc.ID, &sc.GameID, &sc.PlayerID, &sc.Score, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage.AllScores: scan row: %w", err)
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func encodeFaces(ds domain.DieSet) (string, error) {
	faces := make([][]int, len(ds.Dice))
	for i, d := range ds.Dice {
		faces[i] = d.Faces
	}
	data, err := json.Marshal(faces)
	if err != nil {
		return "", fmt.Errorf("encode faces: %w", err)
	}
	return string(data), nil
}

func decodeFaces(label, encoded string) (domain.DieSet, error) {
	var faces [][]int
	if err := json.Unmarshal([]byte(encoded), &faces); err != nil {
		return domain.DieSet{}, fmt.Errorf("decode faces: %w", err)
	}
	dice := make([]domain.Die, len(faces))
	for i, f := range faces {
		dice[i] = domain.Die{Faces: f}
	}
	return domain.DieSet{Label: label, Dice: dice}, nil
}
