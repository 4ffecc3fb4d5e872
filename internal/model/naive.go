package model

import (
	"fmt"
	"math"
)

func init() {
	RegisterForecaster("naive", func(p Params) (Forecaster, error) {
		return &Naive{}, nil
	})
	RegisterForecaster("seasonal_naive", func(p Params) (Forecaster, error) {
		if p.SeasonLength < 1 {
			return nil, fmt.Errorf("seasonal_naive: season_length must be at least 1")
		}
		return &SeasonalNaive{SeasonLength: p.SeasonLength}, nil
	})
}

// Naive 以最后一个观测值作为预测
type Naive struct{}

// Name 模型类型
func (m *Naive) Name() string { return "naive" }

// Forecast 预测
func (m *Naive) Forecast(history []float64, horizon int) (Forecast, error) {
	if err := checkInput(history, horizon); err != nil {
		return Forecast{}, err
	}

	residuals := make([]float64, 0, len(history))
	for t := 1; t < len(history); t++ {
		residuals = append(residuals, history[t]-history[t-1])
	}
	sigma := rms(residuals)

	fc := Forecast{
		Mean:  constant(history[len(history)-1], horizon),
		Sigma: make([]float64, horizon),
	}
	for h := 1; h <= horizon; h++ {
		fc.Sigma[h-1] = sigma * math.Sqrt(float64(h))
	}
	return fc, nil
}

// SeasonalNaive 以上一个周期同位置的观测值作为预测; 历史不足一个周期时退化为 Naive
type SeasonalNaive struct {
	SeasonLength int
}

// Name 模型类型
func (m *SeasonalNaive) Name() string { return "seasonal_naive" }

// Forecast 预测
func (m *SeasonalNaive) Forecast(history []float64, horizon int) (Forecast, error) {
	if err := checkInput(history, horizon); err != nil {
		return Forecast{}, err
	}
	s := m.SeasonLength
	n := len(history)
	if n < s {
		return (&Naive{}).Forecast(history, horizon)
	}

	residuals := make([]float64, 0, n)
	for t := s; t < n; t++ {
		residuals = append(residuals, history[t]-history[t-s])
	}
	sigma := rms(residuals)

	fc := Forecast{
		Mean:  make([]float64, horizon),
		Sigma: make([]float64, horizon),
	}
	for h := 1; h <= horizon; h++ {
		fc.Mean[h-1] = history[n-s+(h-1)%s]
		fc.Sigma[h-1] = sigma * math.Sqrt(float64((h-1)/s+1))
	}
	return fc, nil
}
