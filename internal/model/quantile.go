package model

import (
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"
)

// Quantiles 按正态分布计算每一步的分位数, 结果按 levels 顺序排列
func Quantiles(fc Forecast, levels []float64) [][]float64 {
	out := make([][]float64, len(fc.Mean))
	for h, mu := range fc.Mean {
		sigma := fc.Sigma[h]
		row := make([]float64, len(levels))
		if sigma <= 0 {
			for i := range row {
				row[i] = mu
			}
			out[h] = row
			continue
		}
		dist := distuv.Normal{Mu: mu, Sigma: sigma}
		for i, q := range levels {
			row[i] = dist.Quantile(q)
		}
		out[h] = row
	}
	return out
}

// QuantileName 分位数列名, 如 0.1 -> "0.1"
func QuantileName(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
