package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Errores de configuración de un DieSet.
// Se devuelven antes de cualquier cálculo — un set inválido nunca llega al motor.
var (
	ErrNoDice      = errors.New("die set has no dice")
	ErrTooFewFaces = errors.New("die has fewer than 2 faces")
)

// Die es un dado: un multiset finito de caras enteras, todas equiprobables.
// Las caras no tienen por qué ser 1..N — un dado {1,1,2,3,4,5} es válido
// y su cara repetida pesa el doble.
type Die struct {
	Faces []int
}

// NewDie crea un dado con las caras dadas.
func NewDie(faces ...int) Die {
	return Die{Faces: faces}
}

// StandardDie devuelve el d6 clásico.
func StandardDie() Die {
	return NewDie(1, 2, 3, 4, 5, 6)
}

// Sides devuelve el número de caras (contando repetidas).
func (d Die) Sides() int {
	return len(d.Faces)
}

// DieSet es una secuencia ordenada de dados que se lanzan juntos.
// El resultado de una tirada es la suma de todas las caras.
type DieSet struct {
	Label string
	Dice  []Die
}

// NewDieSet crea un set etiquetado con los dados dados.
func NewDieSet(label string, dice ...Die) DieSet {
	return DieSet{Label: label, Dice: dice}
}

// StandardCatanSet devuelve el set 2d6 de Catan.
func StandardCatanSet() DieSet {
	return NewDieSet("2d6", StandardDie(), StandardDie())
}

// Validate comprueba los invariantes del set: al menos un dado,
// cada dado con al menos 2 caras.
func (ds DieSet) Validate() error {
	if len(ds.Dice) == 0 {
		return fmt.Errorf("domain.DieSet.Validate: %w", ErrNoDice)
	}
	for i, d := range ds.Dice {
		if d.Sides() < 2 {
			return fmt.Errorf("domain.DieSet.Validate: die %d: %w", i, ErrTooFewFaces)
		}
	}
	return nil
}

// Distribution es la distribución teórica de la suma: probabilidad por resultado.
// Las probabilidades suman 1.0 dentro de tolerancia de float64.
type Distribution map[int]float64

// Distribution calcula la distribución exacta de la suma por convolución:
// se parte de la uniforme del primer dado y se convoluciona con cada dado
// siguiente. Opera sobre el multiset explícito de caras, nunca sobre un
// rango 1..6 asumido, y el orden de los dados no altera el resultado.
func (ds DieSet) Distribution() (Distribution, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	dist := Distribution{0: 1.0}
	for _, d := range ds.Dice {
		next := make(Distribution, len(dist)*d.Sides())
		faceProb := 1.0 / float64(d.Sides())
		for sum, p := range dist {
			for _, f := range d.Faces {
				next[sum+f] += p * faceProb
			}
		}
		dist = next
	}
	return dist, nil
}

// Outcomes devuelve los resultados alcanzables en orden ascendente.
func (dist Distribution) Outcomes() []int {
	outcomes := make([]int, 0, len(dist))
	for sum := range dist {
		outcomes = append(outcomes, sum)
	}
	sort.Ints(outcomes)
	return outcomes
}

// Contains devuelve true si la suma es alcanzable con el set.
func (dist Distribution) Contains(sum int) bool {
	_, ok := dist[sum]
	return ok
}

// Total devuelve la suma de probabilidades (≈ 1.0, útil en tests).
func (dist Distribution) Total() float64 {
	var total float64
	for _, p := range dist {
		total += p
	}
	return total
}
