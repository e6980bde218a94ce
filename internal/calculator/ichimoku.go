package calculator

import "MotoTrader/internal/model"

// Ichimoku holds the five cloud lines, each aligned to the input bars.
type Ichimoku struct {
	Conversion model.Series
	Base       model.Series
	SpanA      model.Series
	SpanB      model.Series
	Lagging    model.Series
}

// CalculateIchimoku computes the cloud. SpanA and SpanB are projected forward
// by `base` bars; the lagging span is the close projected back by `base`.
func CalculateIchimoku(bars []model.PriceBar, conv, base, spanB int) Ichimoku {
	highs := Highs(bars)
	lows := Lows(bars)
	closes := Closes(bars)

	conversion := midpoint(highs, lows, conv)
	baseLine := midpoint(highs, lows, base)

	rawSpanA := make([]float64, len(bars))
	for i := range rawSpanA {
		rawSpanA[i] = (conversion[i] + baseLine[i]) / 2
	}

	return Ichimoku{
		Conversion: conversion,
		Base:       baseLine,
		SpanA:      Shift(rawSpanA, base),
		SpanB:      Shift(midpoint(highs, lows, spanB), base),
		Lagging:    Shift(closes, -base),
	}
}

func midpoint(highs, lows []float64, window int) model.Series {
	hi := RollingMax(highs, window)
	lo := RollingMin(lows, window)
	out := make(model.Series, len(highs))
	for i := range out {
		out[i] = (hi[i] + lo[i]) / 2
	}
	return out
}
