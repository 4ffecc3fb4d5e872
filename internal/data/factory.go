package data

import (
	"context"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"go.uber.org/zap"

	"github.com/opsxjacky/ec-forecast/internal/datetime"
	"github.com/opsxjacky/ec-forecast/internal/logging"
	"github.com/opsxjacky/ec-forecast/internal/metrics"
	"github.com/opsxjacky/ec-forecast/internal/resample"
	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// Options LoadDatasets 选项
type Options struct {
	// ResampleFreq 为空时不重采样
	ResampleFreq string
	ResampleAgg  string
	DSCol        string
	StationCol   string
	SourceTZ     string
	Schema       types.Schema

	Logger  *zap.SugaredLogger
	Metrics *metrics.Collector
}

func (o Options) withDefaults() Options {
	if o.ResampleAgg == "" {
		o.ResampleAgg = string(resample.DefaultMethod)
	}
	if o.DSCol == "" {
		o.DSCol = "ds"
	}
	if o.StationCol == "" {
		o.StationCol = "station"
	}
	if o.SourceTZ == "" {
		o.SourceTZ = datetime.DefaultSourceTZ
	}
	if o.Schema == nil {
		o.Schema = types.ColFormat
	}
	o.Logger = logging.OrNop(o.Logger)
	return o
}

// LoadDatasets 按顺序加载数据集: 查找 -> 加载 -> 校验必需列 -> 时间标准化为无时区 UTC
// -> 解析为类型化时间 -> (可选) 重采样, 最后按输入顺序拼接. 任一数据集失败即返回错误.
func LoadDatasets(ctx context.Context, reg *Registry, names []string, opts Options) (*types.Table, error) {
	opts = opts.withDefaults()

	table, err := prepare(names, opts)
	if err != nil {
		opts.Metrics.RecordLoadError(types.ErrorKind(err))
		return nil, err
	}

	for _, name := range names {
		rows, err := loadOne(ctx, reg, name, table, opts)
		if err != nil {
			opts.Metrics.RecordLoadError(types.ErrorKind(err))
			opts.Logger.Errorw("dataset load failed", "dataset", name, "error", err)
			return nil, err
		}
		table.Append(rows...)
	}

	opts.Logger.Infow("datasets loaded", "datasets", names, "rows", table.Len())
	return table, nil
}

// prepare 在读取任何数据前校验参数
func prepare(names []string, opts Options) (*types.Table, error) {
	if len(names) == 0 {
		return nil, &types.ArgumentError{Msg: "must provide at least one dataset name"}
	}
	if opts.ResampleFreq != "" {
		if _, err := resample.ParseFrequency(opts.ResampleFreq); err != nil {
			return nil, err
		}
		if _, err := resample.Aggregation(opts.ResampleAgg); err != nil {
			return nil, err
		}
	}
	if _, err := datetime.LoadLocation(opts.SourceTZ); err != nil {
		return nil, err
	}
	return types.NewTable(opts.Schema, opts.DSCol, opts.StationCol)
}

func loadOne(ctx context.Context, reg *Registry, name string, table *types.Table, opts Options) ([]types.Observation, error) {
	fn, err := reg.Get(name)
	if err != nil {
		return nil, err
	}

	timer := opts.Metrics.StartLoad(name)
	df, err := fn(ctx, opts.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", name, err)
	}

	df, err = KeepMandatory(df, name, opts.Schema)
	if err != nil {
		return nil, err
	}

	df, err = datetime.EnsureDatetimeUTC(df, opts.DSCol, datetime.Options{
		SourceTZ: opts.SourceTZ,
		DropTZ:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}

	rows := observations(df, table)
	nat := 0
	for _, r := range rows {
		if r.Timestamp.IsNaT() {
			nat++
		}
	}

	if opts.ResampleFreq != "" {
		rows, err = resample.Resample(rows, opts.ResampleFreq, opts.ResampleAgg)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", name, err)
		}
	}

	elapsed := timer.ObserveDuration()
	opts.Metrics.RecordDataset(name, len(rows), nat)
	opts.Logger.Debugw("dataset loaded",
		"dataset", name,
		"rows", len(rows),
		"nat", nat,
		"resample_freq", opts.ResampleFreq,
		"elapsed", elapsed,
	)
	return rows, nil
}

// observations 将标准化后的 DataFrame 重新解析为类型化的行
func observations(df dataframe.DataFrame, table *types.Table) []types.Observation {
	stamps := datetime.ParseAll(df.Col(table.DSCol).Records())
	stations := df.Col(table.StationCol)
	values := df.Col(table.ValueCol).Float()

	rows := make([]types.Observation, len(stamps))
	for i := range stamps {
		rows[i] = types.Observation{
			Timestamp: stamps[i],
			Value:     values[i],
		}
		if e := stations.Elem(i); e.IsNA() {
			rows[i].StationNA = true
		} else {
			rows[i].Station = e.String()
		}
	}
	return rows
}
