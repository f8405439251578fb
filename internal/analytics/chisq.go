package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/alejandrodnm/dicetrack/internal/domain"
)

// ChiSquareTail calcula la probabilidad de cola derecha de la distribución
// chi-cuadrado. Es la estrategia de p-value del motor: se elige al construir
// el Analyzer, no con imports condicionales repartidos por el código.
type ChiSquareTail interface {
	// RightTail devuelve P(X² >= x) con dof grados de libertad.
	RightTail(x float64, dof int) float64
	// Method identifica la estrategia en los reportes.
	Method() domain.PValueMethod
}

// TailFor devuelve la estrategia correspondiente al método pedido.
// Cualquier valor desconocido cae en la exacta.
func TailFor(method domain.PValueMethod) ChiSquareTail {
	if method == domain.PValueApprox {
		return ApproxTail{}
	}
	return ExactTail{}
}

// ExactTail evalúa la cola con la chi-cuadrado de gonum.
type ExactTail struct{}

func (ExactTail) RightTail(x float64, dof int) float64 {
	if dof <= 0 {
		return math.NaN()
	}
	if x <= 0 {
		return 1.0
	}
	return distuv.ChiSquared{K: float64(dof)}.Survival(x)
}

func (ExactTail) Method() domain.PValueMethod {
	return domain.PValueExact
}

// ApproxTail aproxima la cola con la transformación Wilson–Hilferty:
//
//	((x/k)^(1/3) - (1 - 2/(9k))) / sqrt(2/(9k)) ~ N(0,1)
//
// Error pequeño para k moderado; para k alto converge a la normal.
type ApproxTail struct{}

func (ApproxTail) RightTail(x float64, dof int) float64 {
	if dof <= 0 {
		return math.NaN()
	}
	if x <= 0 {
		return 1.0
	}
	k := float64(dof)
	z := (math.Cbrt(x/k) - (1 - 2/(9*k))) / math.Sqrt(2/(9*k))
	return 0.5 * math.Erfc(z/math.Sqrt2)
}

func (ApproxTail) Method() domain.PValueMethod {
	return domain.PValueApprox
}
