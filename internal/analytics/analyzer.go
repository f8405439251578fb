package analytics

import (
	"math"

	"github.com/alejandrodnm/dicetrack/internal/domain"
)

const defaultMinExpected = 5.0

// Config contiene los parámetros del motor de análisis.
type Config struct {
	// MinExpected es el count esperado mínimo por bin para considerar
	// fiable el chi-cuadrado. Por debajo, el bin se marca LowExpected.
	MinExpected float64
	// Method selecciona la estrategia de p-value (exacta o aproximada).
	Method domain.PValueMethod
}

// DefaultConfig devuelve los parámetros estándar: umbral 5 (la guía
// clásica para chi-cuadrado) y p-values exactos.
func DefaultConfig() Config {
	return Config{MinExpected: defaultMinExpected, Method: domain.PValueExact}
}

// Analyzer es el motor de análisis de equidad. Sin estado mutable:
// cada llamada es una función pura de sus inputs, por lo que es seguro
// compartirlo entre peticiones concurrentes.
type Analyzer struct {
	minExpected float64
	tail        ChiSquareTail
}

// New crea un Analyzer con los parámetros dados.
func New(cfg Config) *Analyzer {
	if cfg.MinExpected <= 0 {
		cfg.MinExpected = defaultMinExpected
	}
	return &Analyzer{
		minExpected: cfg.MinExpected,
		tail:        TailFor(cfg.Method),
	}
}

// GoodnessOfFit ejecuta el test de bondad de ajuste del log contra la
// distribución teórica del set de dados.
func (a *Analyzer) GoodnessOfFit(log domain.RollLog, dist domain.Distribution) domain.FairnessReport {
	return a.GoodnessOfFitCounts(log.Counts(), dist)
}

// GoodnessOfFitCounts es la variante sobre frecuencias ya tabuladas.
//
// Política de counts esperados bajos: los bins con esperado < MinExpected
// se marcan LowExpected pero NO se fusionan — el estadístico suma sobre
// todos los bins con esperado > 0 y quien lee el reporte decide cuánto
// fiarse. Fusionar bins adyacentes cambiaría el espacio de resultados que
// el resto de la app muestra. Counts de sumas inalcanzables (esperado
// exactamente 0) no entran en el estadístico; el tracker los rechaza al
// registrar, así que aquí no deberían aparecer.
func (a *Analyzer) GoodnessOfFitCounts(counts map[int]int, dist domain.Distribution) domain.FairnessReport {
	outcomes := dist.Outcomes()

	var total int
	for _, sum := range outcomes {
		total += counts[sum]
	}

	report := domain.FairnessReport{
		TotalRolls:       total,
		DegreesOfFreedom: len(outcomes) - 1,
		Method:           a.tail.Method(),
		Bins:             make([]domain.BinStat, 0, len(outcomes)),
	}

	if total == 0 {
		// Sin tiradas no hay nada que testear: reporte neutro y marcado.
		// Los p-values van a 1.0 y no a NaN para que el reporte siga siendo
		// serializable; Insufficient gobierna la interpretación.
		report.Insufficient = true
		report.PValue = 1.0
		for _, sum := range outcomes {
			report.Bins = append(report.Bins, domain.BinStat{
				Outcome:      sum,
				ExpectedProb: dist[sum],
				BinomialP:    1.0,
				LowExpected:  true,
			})
		}
		return report
	}

	var chi float64
	for _, sum := range outcomes {
		prob := dist[sum]
		observed := counts[sum]
		expected := prob * float64(total)

		if expected > 0 {
			diff := float64(observed) - expected
			chi += diff * diff / expected
		}

		report.Bins = append(report.Bins, domain.BinStat{
			Outcome:      sum,
			Observed:     observed,
			ExpectedProb: prob,
			Expected:     expected,
			BinomialP:    binomTwoSided(observed, total, prob),
			LowExpected:  expected < a.minExpected,
		})
	}

	report.ChiSquare = chi
	report.PValue = a.tail.RightTail(chi, report.DegreesOfFreedom)
	return report
}

// Independence ejecuta el test de independencia jugadores × bins de
// resultado. Filas en orden de primera aparición, columnas en el orden
// ascendente del binning. Tiradas fuera del binning se ignoran.
func (a *Analyzer) Independence(log domain.RollLog, bins domain.Binning) domain.ContingencyReport {
	players := log.Players()

	report := domain.ContingencyReport{
		Players:   players,
		BinLabels: bins.Labels(),
		Method:    a.tail.Method(),
		PValue:    1.0,
	}

	rows, cols := len(players), len(bins)
	if rows == 0 || len(log) == 0 {
		report.Insufficient = true
		return report
	}

	rowIdx := make(map[string]int, rows)
	for i, p := range players {
		rowIdx[p] = i
	}

	table := make([][]int, rows)
	for i := range table {
		table[i] = make([]int, cols)
	}
	rowTotals := make([]int, rows)
	colTotals := make([]int, cols)
	grand := 0

	for _, r := range log {
		j := bins.Index(r.Sum)
		if j < 0 {
			continue
		}
		i := rowIdx[r.PlayerID]
		table[i][j]++
		rowTotals[i]++
		colTotals[j]++
		grand++
	}

	report.Table = table
	report.RowTotals = rowTotals
	report.ColTotals = colTotals
	report.GrandTotal = grand

	if grand == 0 {
		report.Insufficient = true
		return report
	}

	// Con una sola fila o columna el test degenera: lo señalamos en vez
	// de dividir por cero o devolver un chi² sin sentido.
	if rows < 2 || cols < 2 {
		return report
	}
	report.Computable = true

	var chi float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			expected := float64(rowTotals[i]) * float64(colTotals[j]) / float64(grand)
			if expected > 0 {
				diff := float64(table[i][j]) - expected
				chi += diff * diff / expected
			}
		}
	}

	report.ChiSquare = chi
	report.DegreesOfFreedom = (rows - 1) * (cols - 1)
	report.PValue = a.tail.RightTail(chi, report.DegreesOfFreedom)

	minDim := rows
	if cols < minDim {
		minDim = cols
	}
	if minDim >= 2 {
		report.VDefined = true
		report.CramersV = math.Sqrt(chi / (float64(grand) * float64(minDim-1)))
	}
	return report
}
