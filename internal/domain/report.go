package domain

// PValueMethod identifica qué estrategia produjo el p-value de un reporte.
// Nunca devolvemos un número aproximado sin marcarlo.
type PValueMethod string

const (
	// PValueExact evalúa la cola derecha de la chi-cuadrado con una
	// librería estadística (gonum).
	PValueExact PValueMethod = "exact"
	// PValueApprox usa la transformación Wilson–Hilferty a una normal.
	// Degradación documentada para cuando no se quiere arrastrar gonum.
	PValueApprox PValueMethod = "wilson-hilferty"
)

// BinStat son las métricas de un resultado concreto en el test de bondad de ajuste.
type BinStat struct {
	Outcome      int
	Observed     int
	ExpectedProb float64
	Expected     float64 // ExpectedProb × total de tiradas
	BinomialP    float64 // p-value binomial exacto a dos colas, diagnóstico por bin
	LowExpected  bool    // Expected < mínimo configurado → interpretar con cautela
}

// FairnessReport es el resultado del test de bondad de ajuste sobre un log
// de tiradas. Derivado, recalculado bajo demanda, nunca persistido.
type FairnessReport struct {
	TotalRolls int
	Bins       []BinStat // en orden ascendente de resultado

	ChiSquare        float64
	DegreesOfFreedom int // resultados alcanzables - 1
	PValue           float64
	Method           PValueMethod

	// Insufficient indica que no hay tiradas: el reporte es neutro
	// (chi²=0, p=1) y no debe interpretarse.
	Insufficient bool
}

// Significant devuelve true si el p-value global queda por debajo de alfa.
func (r FairnessReport) Significant(alpha float64) bool {
	return !r.Insufficient && r.PValue < alpha
}

// ContingencyReport es el resultado del test de independencia
// jugadores × bins de resultado.
type ContingencyReport struct {
	Players   []string // filas, orden de primera aparición
	BinLabels []string // columnas, orden numérico ascendente
	Table     [][]int  // counts[fila][columna]

	RowTotals  []int
	ColTotals  []int
	GrandTotal int

	ChiSquare        float64
	DegreesOfFreedom int // (filas-1) × (columnas-1)
	PValue           float64
	Method           PValueMethod

	// CramersV solo está definido con al menos 2 filas y 2 columnas.
	CramersV     float64
	VDefined     bool
	// Computable es false con menos de 2 filas o 2 columnas: el test
	// degenera y devolvemos esto en vez de romper.
	Computable   bool
	Insufficient bool
}
