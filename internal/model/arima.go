package model

import (
	"fmt"
	"math"
)

func init() {
	RegisterForecaster("arima", func(p Params) (Forecaster, error) {
		if p.D < 0 {
			return nil, fmt.Errorf("arima: d must be non-negative")
		}
		return &ARIMA{
			AR:        append([]float64(nil), p.AR...),
			MA:        append([]float64(nil), p.MA...),
			D:         p.D,
			Intercept: p.Intercept,
		}, nil
	})
}

// ARIMA 固定系数的 ARIMA(p,d,q) 模型
//
// 差分后序列的预测为 c + Σ φ_i (w_{t-i} - c) + Σ θ_j e_{t-j}, 未来残差取 0.
type ARIMA struct {
	AR        []float64
	MA        []float64
	D         int
	Intercept float64
}

// Name 模型类型
func (m *ARIMA) Name() string { return "arima" }

// Forecast 预测
func (m *ARIMA) Forecast(history []float64, horizon int) (Forecast, error) {
	if err := checkInput(history, horizon); err != nil {
		return Forecast{}, err
	}
	if len(history) <= m.D {
		return Forecast{}, fmt.Errorf("arima: need more than %d observations, got %d", m.D, len(history))
	}

	// levels[k] 为 k 阶差分序列
	levels := make([][]float64, m.D+1)
	levels[0] = history
	for k := 1; k <= m.D; k++ {
		levels[k] = difference(levels[k-1])
	}
	w := levels[m.D]
	n := len(w)

	extW := make([]float64, n+horizon)
	copy(extW, w)
	extE := make([]float64, n+horizon)

	// 样本内一步残差
	for t := 0; t < n; t++ {
		extE[t] = w[t] - m.predict(extW, extE, t)
	}
	sigma := rms(extE[:n])

	for h := 0; h < horizon; h++ {
		t := n + h
		extW[t] = m.predict(extW, extE, t)
		extE[t] = 0
	}

	mean := extW[n:]
	for k := m.D; k >= 1; k-- {
		mean = integrate(mean, levels[k-1])
	}

	fc := Forecast{
		Mean:  mean,
		Sigma: make([]float64, horizon),
	}
	for h := 1; h <= horizon; h++ {
		fc.Sigma[h-1] = sigma * math.Sqrt(float64(h))
	}
	return fc, nil
}

func (m *ARIMA) predict(w, e []float64, t int) float64 {
	pred := m.Intercept
	for i := 0; i < len(m.AR) && t-i-1 >= 0; i++ {
		pred += m.AR[i] * (w[t-i-1] - m.Intercept)
	}
	for j := 0; j < len(m.MA) && t-j-1 >= 0; j++ {
		pred += m.MA[j] * e[t-j-1]
	}
	return pred
}

func difference(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

// integrate 以上一阶序列的最后一个值为起点累加, 还原一次差分
func integrate(forecasts, base []float64) []float64 {
	out := make([]float64, len(forecasts))
	prev := base[len(base)-1]
	for i, v := range forecasts {
		prev += v
		out[i] = prev
	}
	return out
}
