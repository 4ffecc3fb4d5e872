package data

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// standardize 按 columns (源列 -> 标准字段键) 重命名, 再把必需列排在前面.
// 源中不存在的列跳过, 由校验步骤报告缺失.
func standardize(df dataframe.DataFrame, schema types.Schema, columns map[string]string) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}

	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}

	for _, src := range sortedKeys(columns) {
		target, ok := schema.Column(columns[src])
		if !ok {
			return df, fmt.Errorf("column %s maps to unknown schema key %q", src, columns[src])
		}
		if !present[src] || src == target {
			continue
		}
		df = df.Rename(target, src)
		if df.Err != nil {
			return df, fmt.Errorf("failed to rename %s: %w", src, df.Err)
		}
		delete(present, src)
		present[target] = true
	}

	// 必需列在前, 其余列保持原顺序
	order := make([]string, 0, df.Ncol())
	for _, col := range schema.Mandatory() {
		if present[col] {
			order = append(order, col)
		}
	}
	for _, name := range df.Names() {
		if !schema.Has(name) {
			order = append(order, name)
		}
	}
	out := df.Select(order)
	if out.Err != nil {
		return df, fmt.Errorf("failed to reorder columns: %w", out.Err)
	}
	return out, nil
}

// columnsOrDefault 未配置列映射时, 源列名与标准字段键相同
func columnsOrDefault(columns map[string]string, schema types.Schema) map[string]string {
	if len(columns) > 0 {
		return columns
	}
	columns = make(map[string]string, len(schema))
	for _, f := range schema {
		columns[f.Key] = f.Key
	}
	return columns
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
