package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"
)

// BacktestRun is the summary of one simulation run, rendered as an Org
// heading for the research notebook.
type BacktestRun struct {
	RunID   string
	Created time.Time
	Dataset string
	Symbol  string

	// Risk parameters
	RiskFraction    float64
	StopLossMin     float64
	StopLossMax     float64
	TakeProfitMin   float64
	TakeProfitMax   float64
	MaxTradesPerDay int
	Sessions        string
	DTE             string
	Seed            int64

	Start time.Time
	End   time.Time

	StartCash float64
	EndCash   float64
	OpenAtEnd int

	Stats Stats

	Notes []string
}

// ReturnPct is the percent change in cash over the run.
func (r BacktestRun) ReturnPct() float64 {
	if r.StartCash == 0 {
		return 0
	}
	return (r.EndCash/r.StartCash - 1) * 100
}

var backtestOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var backtestOrgTmpl = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// FormatOrg renders the run.
func (r BacktestRun) FormatOrg() (string, error) {
	buf := new(bytes.Buffer)
	if err := backtestOrgTmpl.Execute(buf, r); err != nil {
		return "", fmt.Errorf("render backtest org: %w", err)
	}
	return buf.String(), nil
}

// WriteOrg renders the run to path.
func (r BacktestRun) WriteOrg(path string) error {
	s, err := r.FormatOrg()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}

const BacktestOrgTemplate = `* BACKTEST: {{.Symbol}} options {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:SYMBOL:      {{.Symbol}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_CASH:  {{printf "%.2f" .StartCash}}
:END_CASH:    {{printf "%.2f" .EndCash}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:TRADES:      {{.Stats.Trades}}
:WINS:        {{.Stats.Wins}}
:LOSSES:      {{.Stats.Losses}}
:OPEN_AT_END: {{.OpenAtEnd}}
:SEED:        {{.Seed}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Parameters
| Parameter        | Value |
|------------------+-------|
| Risk fraction %  | {{printf "%.2f" (mul100 .RiskFraction)}} |
| Stop loss %      | {{printf "%.1f" (mul100 .StopLossMin)}}-{{printf "%.1f" (mul100 .StopLossMax)}} |
| Take profit %    | {{printf "%.1f" (mul100 .TakeProfitMin)}}-{{printf "%.1f" (mul100 .TakeProfitMax)}} |
| Max trades/day   | {{.MaxTradesPerDay}} |
| Sessions         | {{.Sessions}} |
| DTE              | {{.DTE}} |

** Performance Summary
- Net P/L:          *{{printf "%.2f" .Stats.TotalPnL}}*
- Average P/L:      *{{printf "%.2f" .Stats.AvgPnL}}*
- Win Rate:         *{{printf "%.2f" (mul100 .Stats.WinRate)}}%*
- Max Drawdown:     *{{printf "%.2f" .Stats.MaxDrawdown}}*
- Calls:            *{{printf "%.2f" .Stats.CallPnL}}* ({{.Stats.CallTrades}} trades)
- Puts:             *{{printf "%.2f" .Stats.PutPnL}}* ({{.Stats.PutTrades}} trades)

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Stats.Wins}} |
| Losses  | {{.Stats.Losses}} |
| Total   | {{.Stats.Trades}} |

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
