package datetime

import (
	"strings"
	"time"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// 带时区偏移的格式, 解析结果为 aware
var awareLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

// 不带时区的格式, 解析结果为 naive
var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"20060102",
}

var nullTokens = map[string]bool{
	"":      true,
	"nan":   true,
	"nat":   true,
	"na":    true,
	"null":  true,
	"none":  true,
	"<nil>": true,
}

// Parse 宽松解析时间字符串, 无法解析的值返回 NaT
func Parse(value string) types.Timestamp {
	s := strings.TrimSpace(value)
	if nullTokens[strings.ToLower(s)] {
		return types.NaT
	}

	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.Aware(t)
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.Naive(t)
		}
	}
	return types.NaT
}

// ParseAll 逐个解析
func ParseAll(values []string) []types.Timestamp {
	out := make([]types.Timestamp, len(values))
	for i, v := range values {
		out[i] = Parse(v)
	}
	return out
}

// ParseLayout 按指定格式解析, 失败返回 NaT
func ParseLayout(value, layout string) types.Timestamp {
	t, err := time.Parse(ToLayout(layout), strings.TrimSpace(value))
	if err != nil {
		return types.NaT
	}
	return types.Naive(t)
}

var strftime = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'f': "000000",
	'p': "PM",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
	'%': "%",
}

// ToLayout 将 strftime 风格的格式 (如 %Y-%m-%d %H:%M:%S) 转为 Go 格式,
// 不含 % 的格式原样返回
func ToLayout(format string) string {
	if !strings.Contains(format, "%") {
		return format
	}

	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		if repl, ok := strftime[format[i+1]]; ok {
			b.WriteString(repl)
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
