package domain

import "time"

// Roll es una tirada registrada. Inmutable una vez creada: el motor de
// análisis nunca modifica el histórico, solo lo lee.
type Roll struct {
	ID        string
	GameID    string
	PlayerID  string
	Sum       int
	Faces     []int // caras individuales, opcional (vacío si solo se anotó la suma)
	IdxInGame int   // índice secuencial dentro de la partida, empezando en 0
	RolledAt  time.Time
}

// RollLog es la secuencia ordenada de tiradas de una partida o del
// histórico de un jugador. Append-only desde la perspectiva del motor.
type RollLog []Roll

// Counts devuelve la frecuencia observada por resultado.
func (l RollLog) Counts() map[int]int {
	counts := make(map[int]int)
	for _, r := range l {
		counts[r.Sum]++
	}
	return counts
}

// Players devuelve los jugadores distintos en orden de primera aparición.
// El orden es estable: define las filas de la tabla de contingencia.
func (l RollLog) Players() []string {
	seen := make(map[string]bool)
	var players []string
	for _, r := range l {
		if !seen[r.PlayerID] {
			seen[r.PlayerID] = true
			players = append(players, r.PlayerID)
		}
	}
	return players
}

// ByPlayer devuelve las tiradas de un jugador, en orden.
func (l RollLog) ByPlayer(playerID string) RollLog {
	var out RollLog
	for _, r := range l {
		if r.PlayerID == playerID {
			out = append(out, r)
		}
	}
	return out
}
