package model

// IndicatorSet holds every derived series for one price series.
// All series have the same length as the input bars.
type IndicatorSet struct {
	EMAShort Series
	EMAMid   Series
	EMALong  Series

	MACDLine      Series
	MACDSignal    Series
	MACDHistogram Series

	RSI Series

	Conversion Series
	Base       Series
	SpanA      Series
	SpanB      Series
	Lagging    Series
}
