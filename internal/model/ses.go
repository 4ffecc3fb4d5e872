package model

import (
	"fmt"
	"math"
)

func init() {
	RegisterForecaster("ses", func(p Params) (Forecaster, error) {
		alpha := p.Alpha
		if alpha == 0 {
			alpha = 0.3
		}
		if alpha < 0 || alpha > 1 {
			return nil, fmt.Errorf("ses: alpha must be in (0, 1], got %v", alpha)
		}
		return &SES{Alpha: alpha}, nil
	})
}

// SES 简单指数平滑
type SES struct {
	Alpha float64
}

// Name 模型类型
func (m *SES) Name() string { return "ses" }

// Forecast 预测, 所有步长的点预测等于最后的平滑水平
func (m *SES) Forecast(history []float64, horizon int) (Forecast, error) {
	if err := checkInput(history, horizon); err != nil {
		return Forecast{}, err
	}

	level := history[0]
	residuals := make([]float64, 0, len(history))
	for t := 1; t < len(history); t++ {
		residuals = append(residuals, history[t]-level)
		level = m.Alpha*history[t] + (1-m.Alpha)*level
	}
	sigma := rms(residuals)

	fc := Forecast{
		Mean:  constant(level, horizon),
		Sigma: make([]float64, horizon),
	}
	for h := 1; h <= horizon; h++ {
		fc.Sigma[h-1] = sigma * math.Sqrt(1+float64(h-1)*m.Alpha*m.Alpha)
	}
	return fc, nil
}
