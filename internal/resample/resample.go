package resample

import (
	"math"
	"sort"
	"time"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

type bucketKey struct {
	station string
	start   time.Time
}

// Resample 按站点分组, 把时间轴对齐到固定频率并聚合数值.
// 只输出有数据的桶; NaT 行和缺失站点的行不参与分桶; 同一站点重复的时间戳一起聚合.
// 输出按站点、桶起点排序.
func Resample(rows []types.Observation, freq string, method string) ([]types.Observation, error) {
	step, err := ParseFrequency(freq)
	if err != nil {
		return nil, err
	}
	agg, err := Aggregation(method)
	if err != nil {
		return nil, err
	}

	// 每个站点以首个时间戳当天零点为锚点
	origins := make(map[string]time.Time)
	for _, r := range rows {
		if !bucketable(r) {
			continue
		}
		o, ok := origins[r.Station]
		day := startOfDay(r.Timestamp.Time)
		if !ok || day.Before(o) {
			origins[r.Station] = day
		}
	}

	ordered := make([]types.Observation, 0, len(rows))
	for _, r := range rows {
		if bucketable(r) {
			ordered = append(ordered, r)
		}
	}
	// 桶内 first/last 按时间顺序
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Time.Before(ordered[j].Timestamp.Time)
	})

	groups := make(map[bucketKey][]float64)
	aware := make(map[bucketKey]bool)
	var keys []bucketKey
	for _, r := range ordered {
		k := bucketKey{
			station: r.Station,
			start:   BucketStart(r.Timestamp.Time, origins[r.Station], step),
		}
		if _, ok := groups[k]; !ok {
			groups[k] = []float64{}
			keys = append(keys, k)
		}
		if !math.IsNaN(r.Value) {
			groups[k] = append(groups[k], r.Value)
		}
		aware[k] = r.Timestamp.Aware
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].station != keys[j].station {
			return keys[i].station < keys[j].station
		}
		return keys[i].start.Before(keys[j].start)
	})

	out := make([]types.Observation, 0, len(keys))
	for _, k := range keys {
		ts := types.Timestamp{Time: k.start, Aware: aware[k], Valid: true}
		out = append(out, types.Observation{
			Timestamp: ts,
			Station:   k.station,
			Value:     agg(groups[k]),
		})
	}
	return out, nil
}

func bucketable(r types.Observation) bool {
	return r.Timestamp.Valid && !r.StationNA
}
