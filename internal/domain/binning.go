package domain

import "fmt"

// Bin es una columna de la tabla de contingencia: un rango inclusivo de sumas.
type Bin struct {
	Label string
	Min   int
	Max   int
}

// Contains devuelve true si la suma cae dentro del bin.
func (b Bin) Contains(sum int) bool {
	return sum >= b.Min && sum <= b.Max
}

// Binning es la definición de columnas del test de independencia,
// en orden numérico ascendente.
type Binning []Bin

// Index devuelve el índice del bin que contiene la suma, o -1 si ninguno.
func (bs Binning) Index(sum int) int {
	for i, b := range bs {
		if b.Contains(sum) {
			return i
		}
	}
	return -1
}

// Labels devuelve las etiquetas de los bins en orden.
func (bs Binning) Labels() []string {
	labels := make([]string, len(bs))
	for i, b := range bs {
		labels[i] = b.Label
	}
	return labels
}

// IdentityBins crea un bin por resultado alcanzable: la granularidad
// máxima, un test por suma exacta.
func IdentityBins(dist Distribution) Binning {
	outcomes := dist.Outcomes()
	bins := make(Binning, len(outcomes))
	for i, sum := range outcomes {
		bins[i] = Bin{Label: fmt.Sprintf("%d", sum), Min: sum, Max: sum}
	}
	return bins
}

// CoarseBins agrupa los resultados en low/mid/high. Útil cuando hay pocas
// tiradas y los bins exactos quedarían casi vacíos: lowMax es la suma máxima
// del bin bajo y highMin la mínima del alto.
func CoarseBins(dist Distribution, lowMax, highMin int) Binning {
	outcomes := dist.Outcomes()
	if len(outcomes) == 0 {
		return nil
	}
	min, max := outcomes[0], outcomes[len(outcomes)-1]
	if highMin <= lowMax+1 {
		// Cortes sin hueco entre sí: el bin central quedaría vacío por
		// construcción e inflaría los grados de libertad. Colapsamos a dos.
		return Binning{
			{Label: fmt.Sprintf("low (%d-%d)", min, lowMax), Min: min, Max: lowMax},
			{Label: fmt.Sprintf("high (%d-%d)", lowMax+1, max), Min: lowMax + 1, Max: max},
		}
	}
	return Binning{
		{Label: fmt.Sprintf("low (%d-%d)", min, lowMax), Min: min, Max: lowMax},
		{Label: fmt.Sprintf("mid (%d-%d)", lowMax+1, highMin-1), Min: lowMax + 1, Max: highMin - 1},
		{Label: fmt.Sprintf("high (%d-%d)", highMin, max), Min: highMin, Max: max},
	}
}
