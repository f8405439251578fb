package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/dicetrack/internal/domain"
)

// Console implementa ports.Reporter escribiendo tablas formateadas.
type Console struct {
	out   io.Writer
	alpha float64
}

// NewConsole crea un reporter que escribe a stdout con el nivel de
// significación dado (0 → 0.05).
func NewConsole(alpha float64) *Console {
	return NewConsoleWriter(os.Stdout, alpha)
}

// NewConsoleWriter crea un reporter sobre un writer arbitrario, para tests.
func NewConsoleWriter(w io.Writer, alpha float64) *Console {
	if alpha <= 0 {
		alpha = 0.05
	}
	return &Console{out: w, alpha: alpha}
}

// Fairness imprime la tabla observado vs esperado y el veredicto del test.
func (c *Console) Fairness(_ context.Context, title string, report domain.FairnessReport) error {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %s — %d rolls\n", now, title, report.TotalRolls)

	if report.Insufficient {
		fmt.Fprintln(c.out, "  (insufficient data — no rolls recorded)")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Sum", "Obs", "Exp", "Exp %", "Δ", "Binom p", "Flag")

	for _, b := range report.Bins {
		flag := ""
		if b.LowExpected {
			flag = "low-exp"
		}
		table.Append(
			fmt.Sprintf("%d", b.Outcome),
			fmt.Sprintf("%d", b.Observed),
			fmt.Sprintf("%.1f", b.Expected),
			fmt.Sprintf("%.1f%%", b.ExpectedProb*100),
			fmt.Sprintf("%+.1f", float64(b.Observed)-b.Expected),
			formatP(b.BinomialP),
			flag,
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  chi²=%.3f  dof=%d  p=%s  (%s)\n",
		report.ChiSquare, report.DegreesOfFreedom, formatP(report.PValue), report.Method)
	if report.Significant(c.alpha) {
		fmt.Fprintf(c.out, "  VEREDICTO: SOSPECHOSO — la distribución se desvía de la teórica (p < %.2f)\n", c.alpha)
	} else {
		fmt.Fprintf(c.out, "  VEREDICTO: OK — sin evidencia de dados injustos (p >= %.2f)\n", c.alpha)
	}
	fmt.Fprintln(c.out, "  Binom p = test binomial exacto por suma, diagnóstico sin corrección múltiple")
	return nil
}

// Contingency imprime la tabla de contingencia jugadores × resultados
// con sus marginales y el resultado del test de independencia.
func (c *Console) Contingency(_ context.Context, report domain.ContingencyReport) error {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] players × outcomes — %d rolls, %d players\n",
		now, report.GrandTotal, len(report.Players))

	if report.Insufficient {
		fmt.Fprintln(c.out, "  (insufficient data — no rolls recorded)")
		return nil
	}

	headers := append([]string{"Player"}, report.BinLabels...)
	headers = append(headers, "Total")
	table := tablewriter.NewWriter(c.out)
	table.Header(toAny(headers)...)

	for i, player := range report.Players {
		row := make([]string, 0, len(report.BinLabels)+2)
		row = append(row, player)
		for _, n := range report.Table[i] {
			row = append(row, fmt.Sprintf("%d", n))
		}
		row = append(row, fmt.Sprintf("%d", report.RowTotals[i]))
		table.Append(toAny(row)...)
	}
	table.Render()

	if !report.Computable {
		fmt.Fprintln(c.out, "  Test no computable: hacen falta al menos 2 jugadores y 2 bins")
		return nil
	}

	fmt.Fprintf(c.out, "  chi²=%.3f  dof=%d  p=%s  (%s)\n",
		report.ChiSquare, report.DegreesOfFreedom, formatP(report.PValue), report.Method)
	if report.VDefined {
		fmt.Fprintf(c.out, "  Cramér's V=%.3f — %s\n", report.CramersV, vStrength(report.CramersV))
	} else {
		fmt.Fprintln(c.out, "  Cramér's V: no definido para esta tabla")
	}
	return nil
}

// Scores imprime el resumen histórico de puntuaciones.
func (c *Console) Scores(_ context.Context, rows []domain.ScoreSummary) error {
	if len(rows) == 0 {
		fmt.Fprintf(c.out, "[%s] no scores recorded\n", time.Now().Format("15:04:05"))
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Player", "Games", "Wins", "Win rate", "Avg", "Best")
	for _, r := range rows {
		name := r.Name
		if name == "" {
			name = r.PlayerID
		}
		table.Append(
			name,
			fmt.Sprintf("%d", r.Games),
			fmt.Sprintf("%d", r.Wins),
			fmt.Sprintf("%.1f%%", r.WinRate*100),
			fmt.Sprintf("%.2f", r.AvgScore),
			fmt.Sprintf("%d", r.BestScore),
		)
	}
	table.Render()
	return nil
}

// vStrength traduce el effect size a la escala descriptiva habitual.
func vStrength(v float64) string {
	switch {
	case v < 0.1:
		return "asociación débil o nula"
	case v < 0.3:
		return "asociación moderada"
	case v < 0.5:
		return "asociación fuerte"
	default:
		return "asociación muy fuerte"
	}
}

func formatP(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	if p < 0.001 {
		return "<0.001"
	}
	return fmt.Sprintf("%.3f", p)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
