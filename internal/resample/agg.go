package resample

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// Method 聚合方法
type Method string

const (
	MethodMax    Method = "max"
	MethodMin    Method = "min"
	MethodMean   Method = "mean"
	MethodSum    Method = "sum"
	MethodMedian Method = "median"
	MethodFirst  Method = "first"
	MethodLast   Method = "last"
	MethodCount  Method = "count"
	MethodStd    Method = "std"
)

// DefaultMethod 默认聚合方法
const DefaultMethod = MethodMax

// AggFunc 对一个桶内的非 NaN 值做聚合
type AggFunc func(values []float64) float64

var aggregations = map[Method]AggFunc{
	MethodMax: func(v []float64) float64 {
		if len(v) == 0 {
			return math.NaN()
		}
		return floats.Max(v)
	},
	MethodMin: func(v []float64) float64 {
		if len(v) == 0 {
			return math.NaN()
		}
		return floats.Min(v)
	},
	MethodMean: func(v []float64) float64 {
		if len(v) == 0 {
			return math.NaN()
		}
		return stat.Mean(v, nil)
	},
	MethodSum: func(v []float64) float64 {
		return floats.Sum(v)
	},
	MethodMedian: median,
	MethodFirst: func(v []float64) float64 {
		if len(v) == 0 {
			return math.NaN()
		}
		return v[0]
	},
	MethodLast: func(v []float64) float64 {
		if len(v) == 0 {
			return math.NaN()
		}
		return v[len(v)-1]
	},
	MethodCount: func(v []float64) float64 {
		return float64(len(v))
	},
	MethodStd: func(v []float64) float64 {
		if len(v) < 2 {
			return math.NaN()
		}
		return stat.StdDev(v, nil)
	},
}

// Aggregation 根据名称查找聚合函数, 空名称使用默认方法
func Aggregation(name string) (AggFunc, error) {
	if name == "" {
		name = string(DefaultMethod)
	}
	fn, ok := aggregations[Method(name)]
	if !ok {
		return nil, &types.ArgumentError{Msg: fmt.Sprintf("unknown aggregation %q (use %v)", name, Methods())}
	}
	return fn, nil
}

// Methods 支持的聚合方法
func Methods() []string {
	names := make([]string, 0, len(aggregations))
	for m := range aggregations {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return names
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
