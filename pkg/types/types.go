package types

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	// NaiveLayout 无时区时间的标准输出格式
	NaiveLayout = "2006-01-02 15:04:05.999999999"
	// AwareLayout 带时区时间的标准输出格式
	AwareLayout = time.RFC3339Nano
	// NARecord gota 中缺失值的文本表示
	NARecord = "NaN"
)

// Field 标准字段: 语义键 -> 列名
type Field struct {
	Key    string
	Column string
}

// Schema 有序的标准字段映射
type Schema []Field

// ColFormat 所有数据集共享的标准列映射
var ColFormat = Schema{
	{Key: "date", Column: "ds"},
	{Key: "EC[g/l]", Column: "EC[g/l]"},
	{Key: "station_name", Column: "station"},
}

// Column 根据语义键查找列名
func (s Schema) Column(key string) (string, bool) {
	for _, f := range s {
		if f.Key == key {
			return f.Column, true
		}
	}
	return "", false
}

// Mandatory 必需列 (按映射顺序)
func (s Schema) Mandatory() []string {
	cols := make([]string, len(s))
	for i, f := range s {
		cols[i] = f.Column
	}
	return cols
}

// Has 判断列名是否为必需列
func (s Schema) Has(column string) bool {
	for _, f := range s {
		if f.Column == column {
			return true
		}
	}
	return false
}

// Timestamp 可空的时间值, Valid=false 表示 NaT
type Timestamp struct {
	Time  time.Time
	Aware bool
	Valid bool
}

// NaT 缺失时间
var NaT = Timestamp{}

// Aware 创建带时区的时间
func Aware(t time.Time) Timestamp {
	return Timestamp{Time: t, Aware: true, Valid: true}
}

// Naive 创建无时区的时间, 墙上时间取自 t 的字段
func Naive(t time.Time) Timestamp {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return Timestamp{Time: wall, Valid: true}
}

// IsNaT 是否为缺失时间
func (ts Timestamp) IsNaT() bool {
	return !ts.Valid
}

// Equal 比较两个时间值 (NaT 与 NaT 相等)
func (ts Timestamp) Equal(o Timestamp) bool {
	if !ts.Valid || !o.Valid {
		return ts.Valid == o.Valid
	}
	return ts.Aware == o.Aware && ts.Time.Equal(o.Time)
}

// String 可读输出
func (ts Timestamp) String() string {
	if !ts.Valid {
		return "NaT"
	}
	return ts.Format()
}

// Format 按标准格式输出
func (ts Timestamp) Format() string {
	if ts.Aware {
		return ts.Time.Format(AwareLayout)
	}
	return ts.Time.Format(NaiveLayout)
}

// Record 转为 gota 单元格文本, NaT 输出为缺失值
func (ts Timestamp) Record() string {
	if !ts.Valid {
		return NARecord
	}
	return ts.Format()
}

// Observation 单条观测
type Observation struct {
	Timestamp Timestamp
	Station   string
	Value     float64
	// StationNA 站点缺失, 此时 Station 为空
	StationNA bool
}

// Table 标准化后的长表
type Table struct {
	DSCol      string
	StationCol string
	ValueCol   string
	Columns    []string
	Rows       []Observation
}

// NewTable 按 schema 顺序创建空表
func NewTable(schema Schema, dsCol, stationCol string) (*Table, error) {
	if !schema.Has(dsCol) {
		return nil, &ArgumentError{Msg: fmt.Sprintf("timestamp column %q is not a mandatory column", dsCol)}
	}
	if !schema.Has(stationCol) {
		return nil, &ArgumentError{Msg: fmt.Sprintf("station column %q is not a mandatory column", stationCol)}
	}
	if dsCol == stationCol {
		return nil, &ArgumentError{Msg: "timestamp and station columns must differ"}
	}

	t := &Table{DSCol: dsCol, StationCol: stationCol, Columns: schema.Mandatory()}
	for _, col := range t.Columns {
		if col != dsCol && col != stationCol {
			t.ValueCol = col
			break
		}
	}
	if t.ValueCol == "" {
		return nil, &ArgumentError{Msg: "schema has no value column"}
	}
	return t, nil
}

// Len 行数
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append 追加另一张表的所有行
func (t *Table) Append(rows ...Observation) {
	t.Rows = append(t.Rows, rows...)
}

// Stations 按出现顺序返回站点, 不含缺失站点
func (t *Table) Stations() []string {
	seen := make(map[string]bool)
	var stations []string
	for _, r := range t.Rows {
		if r.StationNA {
			continue
		}
		if !seen[r.Station] {
			seen[r.Station] = true
			stations = append(stations, r.Station)
		}
	}
	return stations
}

// ToDataFrame 转为 gota DataFrame, 列顺序与 schema 一致
func (t *Table) ToDataFrame() dataframe.DataFrame {
	cols := make([]series.Series, 0, len(t.Columns))
	for _, name := range t.Columns {
		switch name {
		case t.DSCol:
			values := make([]string, len(t.Rows))
			for i, r := range t.Rows {
				values[i] = r.Timestamp.Record()
			}
			cols = append(cols, series.New(values, series.String, name))
		case t.StationCol:
			values := make([]string, len(t.Rows))
			for i, r := range t.Rows {
				if r.StationNA {
					values[i] = NARecord
					continue
				}
				values[i] = r.Station
			}
			cols = append(cols, series.New(values, series.String, name))
		default:
			values := make([]float64, len(t.Rows))
			for i, r := range t.Rows {
				values[i] = r.Value
			}
			cols = append(cols, series.New(values, series.Float, name))
		}
	}
	return dataframe.New(cols...)
}

// FormatValue 数值输出, NaN 输出为缺失值
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return NARecord
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
