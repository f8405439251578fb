package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/dicetrack/internal/domain"
)

func catanDist(t *testing.T) domain.Distribution {
	t.Helper()
	dist, err := domain.StandardCatanSet().Distribution()
	require.NoError(t, err)
	return dist
}

// counts2d6 devuelve los counts 2d6 exactamente proporcionales a la
// teórica, escalados por factor (36×factor tiradas).
func counts2d6(factor int) map[int]int {
	weights := map[int]int{2: 1, 3: 2, 4: 3, 5: 4, 6: 5, 7: 6, 8: 5, 9: 4, 10: 3, 11: 2, 12: 1}
	counts := make(map[int]int, len(weights))
	for sum, w := range weights {
		counts[sum] = w * factor
	}
	return counts
}

func TestGoodnessOfFit_PerfectlyProportional(t *testing.T) {
	a := New(DefaultConfig())
	report := a.GoodnessOfFitCounts(counts2d6(1), catanDist(t))

	assert.Equal(t, 36, report.TotalRolls)
	assert.Equal(t, 10, report.DegreesOfFreedom)
	assert.InDelta(t, 0.0, report.ChiSquare, 1e-9)
	assert.InDelta(t, 1.0, report.PValue, 1e-9)
	assert.False(t, report.Insufficient)
	assert.Equal(t, domain.PValueExact, report.Method)

	// Con 36 tiradas, los extremos quedan por debajo del umbral 5
	require.Len(t, report.Bins, 11)
	assert.Equal(t, 2, report.Bins[0].Outcome)
	assert.True(t, report.Bins[0].LowExpected)  // esperado 1.0
	assert.False(t, report.Bins[5].LowExpected) // el 7, esperado 6.0
}

func TestGoodnessOfFit_MissingOutcome(t *testing.T) {
	// 300 tiradas proporcionales salvo el 7, que no sale nunca
	counts := counts2d6(10)
	counts[7] = 0

	a := New(DefaultConfig())
	report := a.GoodnessOfFitCounts(counts, catanDist(t))

	assert.Equal(t, 300, report.TotalRolls)
	// chi² = 50 (bin del 7) + 10 (resto) = 60
	assert.InDelta(t, 60.0, report.ChiSquare, 0.01)
	assert.Less(t, report.PValue, 1e-6)
	assert.True(t, report.Significant(0.05))

	// El p-value binomial del 7 también delata la ausencia
	seven := report.Bins[5]
	require.Equal(t, 7, seven.Outcome)
	assert.Equal(t, 0, seven.Observed)
	assert.Less(t, seven.BinomialP, 1e-6)
}

func TestGoodnessOfFit_EmptyLog(t *testing.T) {
	a := New(DefaultConfig())
	report := a.GoodnessOfFit(nil, catanDist(t))

	assert.True(t, report.Insufficient)
	assert.Equal(t, 0, report.TotalRolls)
	assert.InDelta(t, 0.0, report.ChiSquare, 1e-12)
	assert.InDelta(t, 1.0, report.PValue, 1e-12)
	require.Len(t, report.Bins, 11)

	// El reporte vacío también viaja por la API: todos los p-values deben
	// ser números codificables, nunca NaN
	for _, b := range report.Bins {
		assert.InDelta(t, 1.0, b.BinomialP, 1e-12)
	}
	_, err := json.Marshal(report)
	assert.NoError(t, err)
}

func TestGoodnessOfFit_FromRollLog(t *testing.T) {
	log := domain.RollLog{
		{PlayerID: "ana", Sum: 7},
		{PlayerID: "ana", Sum: 7},
		{PlayerID: "bruno", Sum: 2},
	}

	a := New(DefaultConfig())
	report := a.GoodnessOfFit(log, catanDist(t))

	assert.Equal(t, 3, report.TotalRolls)
	assert.Equal(t, 2, report.Bins[5].Observed)
	assert.Equal(t, 1, report.Bins[0].Observed)
}

func TestGoodnessOfFit_ApproxMethodMarked(t *testing.T) {
	a := New(Config{Method: domain.PValueApprox})
	report := a.GoodnessOfFitCounts(counts2d6(1), catanDist(t))

	assert.Equal(t, domain.PValueApprox, report.Method)
	assert.InDelta(t, 1.0, report.PValue, 1e-6)
}

func identityBins(t *testing.T) domain.Binning {
	t.Helper()
	return domain.IdentityBins(catanDist(t))
}

func TestIndependence_IdenticalProportions(t *testing.T) {
	// Dos jugadores con vectores de counts idénticos → independencia perfecta
	var log domain.RollLog
	for _, player := range []string{"ana", "bruno"} {
		for sum, n := range counts2d6(1) {
			for i := 0; i < n; i++ {
				log = append(log, domain.Roll{PlayerID: player, Sum: sum})
			}
		}
	}

	a := New(DefaultConfig())
	report := a.Independence(log, identityBins(t))

	require.True(t, report.Computable)
	assert.Equal(t, 72, report.GrandTotal)
	assert.InDelta(t, 0.0, report.ChiSquare, 1e-9)
	assert.InDelta(t, 1.0, report.PValue, 1e-9)
	require.True(t, report.VDefined)
	assert.InDelta(t, 0.0, report.CramersV, 1e-9)
}

func TestIndependence_OnePlayerOnlyRollsSevens(t *testing.T) {
	var log domain.RollLog
	for i := 0; i < 30; i++ {
		log = append(log, domain.Roll{PlayerID: "ana", Sum: 7})
	}
	for sum := 2; sum <= 12; sum++ {
		for i := 0; i < 3; i++ {
			log = append(log, domain.Roll{PlayerID: "bruno", Sum: sum})
		}
	}

	a := New(DefaultConfig())
	report := a.Independence(log, identityBins(t))

	require.True(t, report.Computable)
	assert.Equal(t, (2-1)*(11-1), report.DegreesOfFreedom)
	require.True(t, report.VDefined)
	assert.Greater(t, report.CramersV, 0.5)
	assert.Less(t, report.PValue, 0.001)
}

func TestIndependence_RowAndColumnTotals(t *testing.T) {
	log := domain.RollLog{
		{PlayerID: "ana", Sum: 7},
		{PlayerID: "ana", Sum: 2},
		{PlayerID: "bruno", Sum: 7},
	}

	a := New(DefaultConfig())
	report := a.Independence(log, identityBins(t))

	assert.Equal(t, []string{"ana", "bruno"}, report.Players)
	assert.Equal(t, []int{2, 1}, report.RowTotals)
	assert.Equal(t, 3, report.GrandTotal)
	assert.Equal(t, 2, report.ColTotals[5]) // columna del 7
}

func TestIndependence_SinglePlayerNotComputable(t *testing.T) {
	log := domain.RollLog{
		{PlayerID: "ana", Sum: 7},
		{PlayerID: "ana", Sum: 3},
	}

	a := New(DefaultConfig())
	report := a.Independence(log, identityBins(t))

	assert.False(t, report.Computable)
	assert.False(t, report.VDefined)
	assert.False(t, report.Insufficient)
	assert.Equal(t, 2, report.GrandTotal)
}

func TestIndependence_SingleBinNotComputable(t *testing.T) {
	log := domain.RollLog{
		{PlayerID: "ana", Sum: 7},
		{PlayerID: "bruno", Sum: 5},
	}
	bins := domain.Binning{{Label: "all", Min: 2, Max: 12}}

	a := New(DefaultConfig())
	report := a.Independence(log, bins)

	assert.False(t, report.Computable)
	assert.False(t, report.VDefined)
}

func TestIndependence_EmptyLog(t *testing.T) {
	a := New(DefaultConfig())
	report := a.Independence(nil, identityBins(t))

	assert.True(t, report.Insufficient)
	assert.False(t, report.Computable)
	assert.InDelta(t, 1.0, report.PValue, 1e-12)
}

func TestIndependence_CoarseBins(t *testing.T) {
	dist := catanDist(t)
	bins := domain.CoarseBins(dist, 6, 8)

	var log domain.RollLog
	for i := 0; i < 10; i++ {
		log = append(log,
			domain.Roll{PlayerID: "ana", Sum: 3},
			domain.Roll{PlayerID: "ana", Sum: 7},
			domain.Roll{PlayerID: "bruno", Sum: 10},
			domain.Roll{PlayerID: "bruno", Sum: 7},
		)
	}

	a := New(DefaultConfig())
	report := a.Independence(log, bins)

	require.True(t, report.Computable)
	assert.Equal(t, []string{"low (2-6)", "mid (7-7)", "high (8-12)"}, report.BinLabels)
	assert.Equal(t, (2-1)*(3-1), report.DegreesOfFreedom)
}
