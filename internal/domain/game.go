package domain

import (
	"sort"
	"time"
)

// Player es un jugador registrado. El nombre actual puede cambiar;
// los anteriores se conservan como aliases.
type Player struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// PlayerAlias es un nombre histórico de un jugador.
type PlayerAlias struct {
	ID        string
	PlayerID  string
	Name      string
	CreatedAt time.Time
}

// Game es una partida. EndedAt es nil mientras está activa.
type Game struct {
	ID        string
	DieSet    DieSet
	Notes     string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Active devuelve true si la partida sigue abierta.
func (g Game) Active() bool {
	return g.EndedAt == nil
}

// GamePlayer es la participación de un jugador en una partida.
// DisplayName es un snapshot del nombre al unirse: un rename posterior
// no reescribe partidas pasadas.
type GamePlayer struct {
	ID          string
	GameID      string
	PlayerID    string
	TurnOrder   int
	DisplayName string
	JoinedAt    time.Time
}

// FinalScore es la puntuación final de un jugador en una partida.
type FinalScore struct {
	ID        string
	GameID    string
	PlayerID  string
	Score     int
	CreatedAt time.Time
}

// ScoreSummary es la fila del resumen histórico de puntuaciones de un jugador.
type ScoreSummary struct {
	PlayerID  string
	Name      string
	Games     int
	Wins      int
	WinRate   float64
	AvgScore  float64
	BestScore int
}

// SummarizeScores agrega las puntuaciones finales por jugador.
// Una victoria es tener la puntuación máxima de su partida (los empates
// cuentan como victoria para ambos). Ordenado por victorias y luego media,
// descendente.
func SummarizeScores(scores []FinalScore, names map[string]string) []ScoreSummary {
	if len(scores) == 0 {
		return nil
	}

	// El máximo por partida se siembra con el primer score visto, no con 0:
	// una partida de puntuaciones negativas también tiene ganador.
	maxByGame := make(map[string]int)
	for _, s := range scores {
		if cur, ok := maxByGame[s.GameID]; !ok || s.Score > cur {
			maxByGame[s.GameID] = s.Score
		}
	}

	type agg struct {
		games, wins, total, best int
	}
	byPlayer := make(map[string]*agg)
	var order []string
	for _, s := range scores {
		a, ok := byPlayer[s.PlayerID]
		if !ok {
			a = &agg{best: s.Score}
			byPlayer[s.PlayerID] = a
			order = append(order, s.PlayerID)
		}
		a.games++
		a.total += s.Score
		if s.Score > a.best {
			a.best = s.Score
		}
		if s.Score == maxByGame[s.GameID] {
			a.wins++
		}
	}

	rows := make([]ScoreSummary, 0, len(byPlayer))
	for _, pid := range order {
		a := byPlayer[pid]
		rows = append(rows, ScoreSummary{
			PlayerID:  pid,
			Name:      names[pid],
			Games:     a.games,
			Wins:      a.wins,
			WinRate:   float64(a.wins) / float64(a.games),
			AvgScore:  float64(a.total) / float64(a.games),
			BestScore: a.best,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].AvgScore > rows[j].AvgScore
	})
	return rows
}
