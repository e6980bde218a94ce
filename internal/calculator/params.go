package calculator

import (
	"errors"
	"fmt"

	"MotoTrader/internal/model"
)

// Params configures every indicator period.
type Params struct {
	EMAShort           int `yaml:"ema_short" json:"ema_short"`
	EMAMid             int `yaml:"ema_mid" json:"ema_mid"`
	EMALong            int `yaml:"ema_long" json:"ema_long"`
	MACDFast           int `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow           int `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal         int `yaml:"macd_signal" json:"macd_signal"`
	RSILength          int `yaml:"rsi_length" json:"rsi_length"`
	IchimokuConversion int `yaml:"ichimoku_conversion" json:"ichimoku_conversion"`
	IchimokuBase       int `yaml:"ichimoku_base" json:"ichimoku_base"`
	IchimokuSpanB      int `yaml:"ichimoku_span_b" json:"ichimoku_span_b"`
}

// DefaultParams returns EMA 5/10/20, MACD 12/26/9, RSI 14, Ichimoku 9/26/52.
func DefaultParams() Params {
	return Params{
		EMAShort:           5,
		EMAMid:             10,
		EMALong:            20,
		MACDFast:           12,
		MACDSlow:           26,
		MACDSignal:         9,
		RSILength:          14,
		IchimokuConversion: 9,
		IchimokuBase:       26,
		IchimokuSpanB:      52,
	}
}

// WithDefaults fills zero fields from DefaultParams.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	fill := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&p.EMAShort, d.EMAShort)
	fill(&p.EMAMid, d.EMAMid)
	fill(&p.EMALong, d.EMALong)
	fill(&p.MACDFast, d.MACDFast)
	fill(&p.MACDSlow, d.MACDSlow)
	fill(&p.MACDSignal, d.MACDSignal)
	fill(&p.RSILength, d.RSILength)
	fill(&p.IchimokuConversion, d.IchimokuConversion)
	fill(&p.IchimokuBase, d.IchimokuBase)
	fill(&p.IchimokuSpanB, d.IchimokuSpanB)
	return p
}

// Validate checks that every period is positive and the MACD legs are ordered.
func (p Params) Validate() error {
	periods := map[string]int{
		"ema_short":           p.EMAShort,
		"ema_mid":             p.EMAMid,
		"ema_long":            p.EMALong,
		"macd_fast":           p.MACDFast,
		"macd_slow":           p.MACDSlow,
		"macd_signal":         p.MACDSignal,
		"rsi_length":          p.RSILength,
		"ichimoku_conversion": p.IchimokuConversion,
		"ichimoku_base":       p.IchimokuBase,
		"ichimoku_span_b":     p.IchimokuSpanB,
	}
	for name, v := range periods {
		if v <= 0 {
			return fmt.Errorf("indicators.%s must be positive, got %d", name, v)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return errors.New("indicators.macd_fast must be below macd_slow")
	}
	return nil
}

// Compute derives the full indicator set for bars.
func Compute(bars []model.PriceBar, p Params) model.IndicatorSet {
	closes := Closes(bars)
	macd := CalculateMACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	ichi := CalculateIchimoku(bars, p.IchimokuConversion, p.IchimokuBase, p.IchimokuSpanB)

	return model.IndicatorSet{
		EMAShort:      CalculateEMA(closes, p.EMAShort),
		EMAMid:        CalculateEMA(closes, p.EMAMid),
		EMALong:       CalculateEMA(closes, p.EMALong),
		MACDLine:      macd.Line,
		MACDSignal:    macd.Signal,
		MACDHistogram: macd.Histogram,
		RSI:           CalculateRSI(closes, p.RSILength),
		Conversion:    ichi.Conversion,
		Base:          ichi.Base,
		SpanA:         ichi.SpanA,
		SpanB:         ichi.SpanB,
		Lagging:       ichi.Lagging,
	}
}
