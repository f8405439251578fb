package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// binomTwoSided calcula el p-value binomial exacto a dos colas en el sentido
// de scipy.binomtest: suma las probabilidades de todos los resultados cuya
// PMF es menor o igual que la del observado. Para los n pequeños de una
// partida de mesa la aproximación normal es mala; la suma exacta no.
func binomTwoSided(k, n int, p float64) float64 {
	if n <= 0 {
		return math.NaN()
	}
	if p <= 0 {
		if k == 0 {
			return 1.0
		}
		return 0.0
	}
	if p >= 1 {
		if k == n {
			return 1.0
		}
		return 0.0
	}

	dist := distuv.Binomial{N: float64(n), P: p}
	logPk := dist.LogProb(float64(k))

	// margen numérico para contar como "igual" PMFs que difieren en ULPs
	const slack = 1e-12
	var total float64
	for x := 0; x <= n; x++ {
		if lx := dist.LogProb(float64(x)); lx <= logPk+slack {
			total += math.Exp(lx)
		}
	}
	return math.Min(1.0, total)
}
