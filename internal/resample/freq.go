package resample

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// 频率单位 (pandas offset alias)
var units = map[string]time.Duration{
	"D":   24 * time.Hour,
	"d":   24 * time.Hour,
	"H":   time.Hour,
	"h":   time.Hour,
	"T":   time.Minute,
	"min": time.Minute,
	"S":   time.Second,
	"s":   time.Second,
	"L":   time.Millisecond,
	"ms":  time.Millisecond,
	"U":   time.Microsecond,
	"us":  time.Microsecond,
	"N":   time.Nanosecond,
	"ns":  time.Nanosecond,
}

// 日历锚定频率 (周/月/季/年), 桶宽不固定
var calendarUnits = []string{"W", "M", "MS", "ME", "SM", "BM", "BMS", "Q", "QS", "QE", "A", "AS", "Y", "YS", "YE", "B"}

// ParseFrequency 解析频率字符串, 如 "H", "D", "15T", "15min", "30s".
// 只支持固定宽度单位, 日历锚定频率返回参数错误
func ParseFrequency(freq string) (time.Duration, error) {
	s := strings.TrimSpace(freq)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}

	n := 1
	if i > 0 {
		v, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, &types.ArgumentError{Msg: fmt.Sprintf("invalid frequency %q", freq)}
		}
		n = v
	}

	unit, ok := units[s[i:]]
	if !ok && isCalendarUnit(s[i:]) {
		return 0, &types.ArgumentError{Msg: fmt.Sprintf("invalid frequency %q: calendar frequencies are not supported, use a fixed width such as 7D", freq)}
	}
	if !ok {
		return 0, &types.ArgumentError{Msg: fmt.Sprintf("invalid frequency %q: unsupported unit %q", freq, s[i:])}
	}
	if n <= 0 {
		return 0, &types.ArgumentError{Msg: fmt.Sprintf("invalid frequency %q: multiplier must be positive", freq)}
	}
	return time.Duration(n) * unit, nil
}

func isCalendarUnit(unit string) bool {
	base := unit
	if j := strings.IndexByte(unit, '-'); j >= 0 {
		base = unit[:j]
	}
	for _, u := range calendarUnits {
		if base == u {
			return true
		}
	}
	return false
}

// BucketStart 计算 t 所在桶的起点, 桶以 origin 为锚点
func BucketStart(t, origin time.Time, freq time.Duration) time.Time {
	offset := t.Sub(origin)
	n := offset / freq
	if offset < 0 && offset%freq != 0 {
		n--
	}
	return origin.Add(n * freq)
}

// startOfDay 当天零点, 作为分桶锚点
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
