package strategy

import (
	"math"
	"time"

	"MotoTrader/internal/model"
)

// dxyDamping weights the dollar index relative to VIX in the macro proxy.
const dxyDamping = 0.5

// MacroSignal derives a risk-on/risk-off call from VIX and DXY moves at the
// latest bar shared by the symbol and VIX series: sign(-vixChg - 0.5*dxyChg).
// Missing or flat data is neutral.
func MacroSignal(symbolBars, vix, dxy []model.PriceBar, interval string) model.Signal {
	if len(symbolBars) == 0 || len(vix) == 0 {
		return model.Neutral
	}
	daily := isDailyOrLonger(interval)
	vixChg := pctChanges(vix, daily)
	dxyChg := pctChanges(dxy, daily)

	for i := len(symbolBars) - 1; i >= 0; i-- {
		key := alignKey(symbolBars[i].Time, daily)
		v, ok := vixChg[key]
		if !ok {
			continue
		}
		d := dxyChg[key]
		if v == 0 && d == 0 {
			return model.Neutral
		}
		score := -v - dxyDamping*d
		switch {
		case score > 0:
			return model.Bullish
		case score < 0:
			return model.Bearish
		default:
			return model.Neutral
		}
	}
	return model.Neutral
}

// pctChanges maps each bar's aligned time to its close-to-close change.
// The first bar has no prior close and reads 0.
func pctChanges(bars []model.PriceBar, daily bool) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(bars))
	for i, b := range bars {
		chg := 0.0
		if i > 0 && bars[i-1].Close != 0 {
			chg = b.Close/bars[i-1].Close - 1
		}
		if math.IsNaN(chg) || math.IsInf(chg, 0) {
			chg = 0
		}
		out[alignKey(b.Time, daily)] = chg
	}
	return out
}

func alignKey(t time.Time, daily bool) time.Time {
	if daily {
		u := t.UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t.UTC().Truncate(time.Minute)
}

func isDailyOrLonger(interval string) bool {
	switch interval {
	case "1d", "5d", "1wk", "1mo", "3mo", "":
		return true
	}
	return false
}
