package ports

import (
	"context"

	"github.com/alejandrodnm/dicetrack/internal/domain"
)

// Reporter presenta los reportes calculados al usuario.
// En la implementación de consola, imprime tablas formateadas.
type Reporter interface {
	// Fairness muestra un reporte de bondad de ajuste bajo el título dado.
	Fairness(ctx context.Context, title string, report domain.FairnessReport) error

	// Contingency muestra un reporte de independencia jugadores × resultados.
	Contingency(ctx context.Context, report domain.ContingencyReport) error

	// Scores muestra el resumen histórico de puntuaciones.
	Scores(ctx context.Context, rows []domain.ScoreSummary) error
}
