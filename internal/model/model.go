package model

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Forecast 点预测及其标准差
type Forecast struct {
	Mean  []float64
	Sigma []float64
}

// Forecaster 预测模型接口
type Forecaster interface {
	// Name 模型类型
	Name() string

	// Forecast 基于历史序列预测未来 horizon 步
	Forecast(history []float64, horizon int) (Forecast, error)
}

// Constructor 根据模型参数创建预测器
type Constructor func(p Params) (Forecaster, error)

var (
	mu           sync.RWMutex
	constructors = make(map[string]Constructor)
)

// RegisterForecaster 注册模型类型, 重复注册时 panic
func RegisterForecaster(kind string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := constructors[kind]; exists {
		panic(fmt.Sprintf("model: forecaster %q already registered", kind))
	}
	constructors[kind] = c
}

// Kinds 已注册的模型类型
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New 根据模型文件创建预测器
func New(a *Artifact) (Forecaster, error) {
	mu.RLock()
	c, ok := constructors[a.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown model kind %q (available: %v)", a.Kind, Kinds())
	}
	return c(a.Params)
}

func checkInput(history []float64, horizon int) error {
	if len(history) == 0 {
		return fmt.Errorf("empty history")
	}
	if horizon < 1 {
		return fmt.Errorf("horizon must be at least 1")
	}
	return nil
}

// rms 残差均方根
func rms(residuals []float64) float64 {
	if len(residuals) == 0 {
		return 0
	}
	var ss float64
	for _, e := range residuals {
		ss += e * e
	}
	return math.Sqrt(ss / float64(len(residuals)))
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
