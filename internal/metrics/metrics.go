package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 数据加载与推理指标
type Collector struct {
	registry *prometheus.Registry

	// 加载
	DatasetsLoaded *prometheus.CounterVec
	RowsLoaded     *prometheus.CounterVec
	NaTTimestamps  *prometheus.CounterVec
	LoadErrors     *prometheus.CounterVec
	LoadDuration   *prometheus.HistogramVec

	// 推理
	SeriesForecast  *prometheus.CounterVec
	PredictionRows  *prometheus.CounterVec
	PredictDuration *prometheus.HistogramVec
}

// NewCollector 创建指标收集器, 使用独立的 registry
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		DatasetsLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "datasets_loaded_total",
				Help:      "Number of datasets loaded successfully",
			},
			[]string{"dataset"},
		),

		RowsLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_loaded_total",
				Help:      "Rows emitted per dataset after normalization and resampling",
			},
			[]string{"dataset"},
		),

		NaTTimestamps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nat_timestamps_total",
				Help:      "Timestamps that could not be parsed",
			},
			[]string{"dataset"},
		),

		LoadErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "load_errors_total",
				Help:      "Dataset load failures by error kind",
			},
			[]string{"kind"},
		),

		LoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Time spent loading one dataset",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"dataset"},
		),

		SeriesForecast: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "series_forecast_total",
				Help:      "Series forecast per model",
			},
			[]string{"model"},
		),

		PredictionRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_rows_total",
				Help:      "Prediction rows written per model",
			},
			[]string{"model"},
		),

		PredictDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "predict_duration_seconds",
				Help:      "Time spent producing predictions",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 60},
			},
			[]string{"model"},
		),
	}
}

// Registry 返回底层 registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Timer 计时器
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer 创建计时器
func (c *Collector) NewTimer(observer prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: observer,
	}
}

// ObserveDuration 记录自创建以来的耗时
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(d.Seconds())
	}
	return d
}

// RecordDataset 记录一个数据集加载成功
func (c *Collector) RecordDataset(name string, rows, nat int) {
	if c == nil {
		return
	}
	c.DatasetsLoaded.WithLabelValues(name).Inc()
	c.RowsLoaded.WithLabelValues(name).Add(float64(rows))
	c.NaTTimestamps.WithLabelValues(name).Add(float64(nat))
}

// RecordLoadError 按错误类别计数
func (c *Collector) RecordLoadError(kind string) {
	if c == nil {
		return
	}
	c.LoadErrors.WithLabelValues(kind).Inc()
}

// StartLoad 开始一个数据集加载计时
func (c *Collector) StartLoad(name string) *Timer {
	if c == nil {
		return &Timer{start: time.Now()}
	}
	return c.NewTimer(c.LoadDuration.WithLabelValues(name))
}

// StartPredict 开始一次推理计时
func (c *Collector) StartPredict(model string) *Timer {
	if c == nil {
		return &Timer{start: time.Now()}
	}
	return c.NewTimer(c.PredictDuration.WithLabelValues(model))
}

// RecordPrediction 记录推理输出
func (c *Collector) RecordPrediction(model string, series, rows int) {
	if c == nil {
		return
	}
	c.SeriesForecast.WithLabelValues(model).Add(float64(series))
	c.PredictionRows.WithLabelValues(model).Add(float64(rows))
}

// WriteFile 以文本格式导出全部指标
func (c *Collector) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
