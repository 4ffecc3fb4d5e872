package datetime

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

const (
	// DefaultSourceTZ 无时区时间默认所在时区
	DefaultSourceTZ = "Asia/Bangkok"
	// DefaultLayout 字符串输出默认格式 (%Y-%m-%d %H:%M:%S)
	DefaultLayout = "2006-01-02 15:04:05"
)

// Options 时间标准化选项
type Options struct {
	// SourceTZ 无时区时间被视为该时区的墙上时间
	SourceTZ string
	// DropTZ 输出去掉时区, 墙上时间等于 UTC 时刻
	DropTZ bool
	// AsString 与 DropTZ 同时使用时输出格式化字符串
	AsString bool
	// Layout 字符串输出格式, 支持 Go 格式或 strftime 格式
	Layout string
}

func (o Options) withDefaults() Options {
	if o.SourceTZ == "" {
		o.SourceTZ = DefaultSourceTZ
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	o.Layout = ToLayout(o.Layout)
	return o
}

// LoadLocation 加载时区, 失败时返回参数错误
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &types.ArgumentError{Msg: fmt.Sprintf("invalid source timezone %q: %v", name, err)}
	}
	return loc, nil
}

// ToUTC 转为 UTC: aware 值直接转换, naive 值先按 loc 解释为墙上时间.
// 夏令时跳过的墙上时间按跳变前偏移换算 (结果落在跳变之后),
// 重复的墙上时间取第二次出现 (标准时间)
func ToUTC(ts types.Timestamp, loc *time.Location) types.Timestamp {
	if !ts.Valid {
		return types.NaT
	}
	if ts.Aware {
		return types.Aware(ts.Time.UTC())
	}
	t := ts.Time
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return types.Aware(local.UTC())
}

// DropTZ 去掉时区, 保留 UTC 墙上时间
func DropTZ(ts types.Timestamp) types.Timestamp {
	if !ts.Valid {
		return types.NaT
	}
	return types.Naive(ts.Time.UTC())
}

// Normalize 将一列时间统一为 UTC, NaT 保持为 NaT
func Normalize(values []types.Timestamp, opts Options) ([]types.Timestamp, error) {
	opts = opts.withDefaults()
	loc, err := LoadLocation(opts.SourceTZ)
	if err != nil {
		return nil, err
	}

	out := make([]types.Timestamp, len(values))
	for i, ts := range values {
		u := ToUTC(ts, loc)
		if opts.DropTZ {
			u = DropTZ(u)
		}
		out[i] = u
	}
	return out, nil
}

// Render 按选项把标准化后的时间转为单元格文本
func Render(values []types.Timestamp, opts Options) []string {
	opts = opts.withDefaults()
	records := make([]string, len(values))
	for i, ts := range values {
		switch {
		case !ts.Valid:
			records[i] = types.NARecord
		case opts.DropTZ && opts.AsString:
			records[i] = ts.Time.Format(opts.Layout)
		default:
			records[i] = ts.Format()
		}
	}
	return records
}

// EnsureDatetimeUTC 解析并标准化 DataFrame 中的时间列, 返回新的 DataFrame
func EnsureDatetimeUTC(df dataframe.DataFrame, col string, opts Options) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}
	if !hasColumn(df, col) {
		return df, &types.ArgumentError{Msg: fmt.Sprintf("column %q not found", col)}
	}

	parsed := ParseAll(df.Col(col).Records())
	normalized, err := Normalize(parsed, opts)
	if err != nil {
		return df, err
	}

	out := df.Mutate(series.New(Render(normalized, opts), series.String, col))
	if out.Err != nil {
		return df, fmt.Errorf("failed to replace column %s: %w", col, out.Err)
	}
	return out, nil
}

func hasColumn(df dataframe.DataFrame, col string) bool {
	for _, name := range df.Names() {
		if name == col {
			return true
		}
	}
	return false
}
