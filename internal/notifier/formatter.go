package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"MotoTrader/internal/model"
)

func signalMark(s model.Signal) string {
	switch s {
	case model.Bullish:
		return "🟢"
	case model.Bearish:
		return "🔴"
	}
	return "⚪"
}

// FormatCycleSummary formats one decision cycle into a Telegram message.
func FormatCycleSummary(s *model.CycleSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>MotoTrader cycle</b> | %s\n", s.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Weights: %s\n\n", formatWeightsInline(s.Weights)))

	for _, r := range s.Reports {
		if r.Skipped != "" {
			b.WriteString(fmt.Sprintf("⏭ <b>%s</b> skipped: %s\n", html.EscapeString(r.Symbol), html.EscapeString(r.Skipped)))
			continue
		}
		b.WriteString(fmt.Sprintf("<b>%s</b> $%.2f\n", html.EscapeString(r.Symbol), r.LastPrice))
		b.WriteString(fmt.Sprintf("  tech %s %+d | macro %s %+d | fund %s %+d\n",
			signalMark(r.Signals.Tech), r.Signals.Tech,
			signalMark(r.Signals.Macro), r.Signals.Macro,
			signalMark(r.Signals.Fund), r.Signals.Fund))
		b.WriteString(fmt.Sprintf("  score %+.2f → target %+.2f%% (now %+.2f%%)\n",
			r.CombinedScore, r.TargetExposure*100, r.CurrentWeight*100))
		if a := r.Action; a != nil {
			switch a.Kind {
			case model.ActionBuy, model.ActionSell:
				b.WriteString(fmt.Sprintf("  🔁 %s %d @ $%.2f\n", strings.ToUpper(string(a.Kind)), a.Quantity, a.Price))
			case model.ActionSkipped:
				b.WriteString(fmt.Sprintf("  ⚠️ reconcile skipped (%+d shares)\n", a.DeltaShares))
			}
		}
	}

	b.WriteString(fmt.Sprintf("\n💼 Cash $%.2f | MV $%.2f | Equity $%.2f\n", s.Cash, s.MarketValue, s.Equity))
	return b.String()
}

// FormatPortfolio formats cash, positions and valuation.
func FormatPortfolio(p model.Portfolio, prices map[string]float64, equity float64) string {
	var b strings.Builder
	b.WriteString("💼 <b>Portfolio</b>\n\n")
	b.WriteString(fmt.Sprintf("Cash: $%s\n", p.Cash.StringFixed(2)))

	symbols := make([]string, 0, len(p.Positions))
	for sym, pos := range p.Positions {
		if pos.Quantity > 0 {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)
	if len(symbols) == 0 {
		b.WriteString("No open positions\n")
	}
	for _, sym := range symbols {
		pos := p.Positions[sym]
		line := fmt.Sprintf("%s: %d @ $%.2f", html.EscapeString(sym), pos.Quantity, pos.AverageCost)
		if px, ok := prices[sym]; ok {
			line += fmt.Sprintf(" | last $%.2f | MV $%.2f", px, float64(pos.Quantity)*px)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("Equity: $%.2f\n", equity))
	return b.String()
}

// FormatWeights shows the factor weights and whether they are live.
func FormatWeights(w model.WeightVector, adaptive bool) string {
	mode := "static"
	if adaptive {
		mode = "adaptive"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚖️ <b>Factor weights</b> (%s)\n\n", mode))
	for _, k := range model.Factors {
		b.WriteString(fmt.Sprintf("%s: %.3f\n", k, w[k]))
	}
	return b.String()
}

// FormatHistory lists the newest n ledger entries first.
func FormatHistory(entries []model.LedgerEntry, n int) string {
	if len(entries) == 0 {
		return "📒 No trades yet."
	}
	var b strings.Builder
	b.WriteString("📒 <b>Trade history</b>\n\n")
	for i := len(entries) - 1; i >= 0 && len(entries)-i <= n; i-- {
		e := entries[i]
		line := fmt.Sprintf("%s %s %d %s @ $%.2f",
			e.Time.Format("01-02 15:04"), e.Side, e.Quantity, html.EscapeString(e.Symbol), e.Price)
		if e.Reason != "" {
			line += " (" + html.EscapeString(e.Reason) + ")"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func formatWeightsInline(w model.WeightVector) string {
	parts := make([]string, 0, len(model.Factors))
	for _, k := range model.Factors {
		parts = append(parts, fmt.Sprintf("%s %.2f", k, w[k]))
	}
	return strings.Join(parts, " · ")
}
