package engine

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"go.uber.org/zap"

	"github.com/opsxjacky/ec-forecast/internal/datetime"
	"github.com/opsxjacky/ec-forecast/internal/logging"
	"github.com/opsxjacky/ec-forecast/internal/metrics"
	"github.com/opsxjacky/ec-forecast/internal/model"
	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// 预测结果固定列
const (
	ColItemID    = "item_id"
	ColTimestamp = "timestamp"
	ColMean      = "mean"
)

// Prediction 单个序列单步的预测
type Prediction struct {
	ItemID    string
	Timestamp time.Time
	Mean      float64
	Quantiles []float64
}

// Result 推理结果
type Result struct {
	Model          string
	Kind           string
	QuantileLevels []float64
	Series         int
	Skipped        []string
	Predictions    []Prediction
	Elapsed        time.Duration
}

// InferenceEngine 推理引擎
type InferenceEngine struct {
	artifact  *model.Artifact
	predictor model.Forecaster
	logger    *zap.SugaredLogger
	metrics   *metrics.Collector
	result    *Result
}

// New 创建推理引擎, logger 和 collector 可为 nil
func New(logger *zap.SugaredLogger, collector *metrics.Collector) *InferenceEngine {
	return &InferenceEngine{
		logger:  logging.OrNop(logger),
		metrics: collector,
	}
}

// SetPredictor 设置模型
func (e *InferenceEngine) SetPredictor(a *model.Artifact, f model.Forecaster) {
	e.artifact = a
	e.predictor = f
}

// history 单个序列的历史
type history struct {
	id     string
	stamps []time.Time
	values []float64
}

// Run 对输入中的每个序列预测 prediction_length 步
func (e *InferenceEngine) Run(df dataframe.DataFrame) (*Result, error) {
	if err := e.validate(df); err != nil {
		return nil, err
	}
	a := e.artifact

	step, err := a.Step()
	if err != nil {
		return nil, err
	}

	timer := e.metrics.StartPredict(a.Name)
	groups := e.group(df)

	result := &Result{
		Model:          a.Name,
		Kind:           e.predictor.Name(),
		QuantileLevels: a.QuantileLevels,
	}
	for _, g := range groups {
		if len(g.values) == 0 {
			e.logger.Warnw("series has no usable history, skipped", "item_id", g.id)
			result.Skipped = append(result.Skipped, g.id)
			continue
		}

		fc, err := e.predictor.Forecast(g.values, a.PredictionLength)
		if err != nil {
			return nil, fmt.Errorf("failed to forecast %s: %w", g.id, err)
		}
		quantiles := model.Quantiles(fc, a.QuantileLevels)

		last := g.stamps[len(g.stamps)-1]
		for h := range fc.Mean {
			result.Predictions = append(result.Predictions, Prediction{
				ItemID:    g.id,
				Timestamp: last.Add(time.Duration(h+1) * step),
				Mean:      fc.Mean[h],
				Quantiles: quantiles[h],
			})
		}
		result.Series++
	}

	result.Elapsed = timer.ObserveDuration()
	e.metrics.RecordPrediction(a.Name, result.Series, len(result.Predictions))
	e.logger.Infow("inference finished",
		"model", a.Name,
		"kind", result.Kind,
		"series", result.Series,
		"skipped", len(result.Skipped),
		"rows", len(result.Predictions),
		"elapsed", result.Elapsed,
	)

	e.result = result
	return result, nil
}

// validate 检查模型和输入列
func (e *InferenceEngine) validate(df dataframe.DataFrame) error {
	if e.artifact == nil || e.predictor == nil {
		return fmt.Errorf("predictor not set")
	}
	if df.Err != nil {
		return fmt.Errorf("invalid input: %w", df.Err)
	}

	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	var missing []string
	for _, col := range []string{e.artifact.IDColumn, e.artifact.TimestampColumn, e.artifact.Target} {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &types.ValidationError{Dataset: "input", Missing: missing}
	}
	return nil
}

// group 按序列分组, 丢弃缺失 id, 无效时间和空值, 组内按时间排序, 组间按 id 排序
func (e *InferenceEngine) group(df dataframe.DataFrame) []*history {
	a := e.artifact
	idCol := df.Col(a.IDColumn)
	stamps := datetime.ParseAll(df.Col(a.TimestampColumn).Records())
	values := df.Col(a.Target).Float()

	byID := make(map[string]*history)
	var order []string
	dropped := 0
	for i := 0; i < idCol.Len(); i++ {
		cell := idCol.Elem(i)
		if cell.IsNA() {
			dropped++
			continue
		}
		id := cell.String()
		g, ok := byID[id]
		if !ok {
			g = &history{id: id}
			byID[id] = g
			order = append(order, id)
		}
		if stamps[i].IsNaT() || math.IsNaN(values[i]) {
			dropped++
			continue
		}
		ts := stamps[i]
		if ts.Aware {
			ts = datetime.DropTZ(ts)
		}
		g.stamps = append(g.stamps, ts.Time)
		g.values = append(g.values, values[i])
	}
	if dropped > 0 {
		e.logger.Debugw("rows without id, timestamp or target dropped", "rows", dropped)
	}

	sort.Strings(order)
	groups := make([]*history, len(order))
	for i, id := range order {
		g := byID[id]
		sort.Stable(byTime{g})
		groups[i] = g
	}
	return groups
}

type byTime struct{ h *history }

func (b byTime) Len() int           { return len(b.h.stamps) }
func (b byTime) Less(i, j int) bool { return b.h.stamps[i].Before(b.h.stamps[j]) }
func (b byTime) Swap(i, j int) {
	b.h.stamps[i], b.h.stamps[j] = b.h.stamps[j], b.h.stamps[i]
	b.h.values[i], b.h.values[j] = b.h.values[j], b.h.values[i]
}

// GetResult 获取推理结果
func (e *InferenceEngine) GetResult() *Result {
	return e.result
}

// ToDataFrame 将预测结果转为 DataFrame: item_id, timestamp, mean, 各分位数
func (r *Result) ToDataFrame() dataframe.DataFrame {
	n := len(r.Predictions)
	ids := make([]string, n)
	stamps := make([]string, n)
	means := make([]float64, n)
	quantiles := make([][]float64, len(r.QuantileLevels))
	for i := range quantiles {
		quantiles[i] = make([]float64, n)
	}

	for i, p := range r.Predictions {
		ids[i] = p.ItemID
		stamps[i] = p.Timestamp.Format(datetime.DefaultLayout)
		means[i] = p.Mean
		for j := range quantiles {
			quantiles[j][i] = p.Quantiles[j]
		}
	}

	cols := []series.Series{
		series.New(ids, series.String, ColItemID),
		series.New(stamps, series.String, ColTimestamp),
		series.New(means, series.Float, ColMean),
	}
	for j, q := range r.QuantileLevels {
		cols = append(cols, series.New(quantiles[j], series.Float, model.QuantileName(q)))
	}
	return dataframe.New(cols...)
}

// WriteCSV 以 CSV 格式写出预测结果
func (e *InferenceEngine) WriteCSV(w io.Writer) error {
	if e.result == nil {
		return fmt.Errorf("no results to export, run inference first")
	}
	df := e.result.ToDataFrame()
	if df.Err != nil {
		return fmt.Errorf("failed to build result frame: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write predictions: %w", err)
	}
	return nil
}

// ExportResults 导出结果到 CSV 文件
func (e *InferenceEngine) ExportResults(path string) error {
	if e.result == nil {
		return fmt.Errorf("no results to export, run inference first")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := e.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	e.logger.Infow("results exported", "path", path, "rows", len(e.result.Predictions))
	return nil
}

// PrintSummary 打印推理摘要
func (e *InferenceEngine) PrintSummary(w io.Writer) {
	if e.result == nil {
		fmt.Fprintln(w, "No results available")
		return
	}
	r := e.result

	fmt.Fprintln(w, "\n========== Inference Summary ==========")
	fmt.Fprintf(w, "Model: %s (%s)\n", r.Model, r.Kind)
	fmt.Fprintf(w, "Prediction Length: %d x %s\n", e.artifact.PredictionLength, e.artifact.Freq)
	fmt.Fprintf(w, "Series Forecast: %d\n", r.Series)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "Series Skipped: %d %v\n", len(r.Skipped), r.Skipped)
	}
	fmt.Fprintf(w, "Rows: %d\n", len(r.Predictions))
	fmt.Fprintf(w, "Elapsed: %s\n", r.Elapsed)
	fmt.Fprintln(w, "=======================================")
}
