package data

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// KeepMandatory 校验必需列并只保留必需列 (按 schema 顺序)
func KeepMandatory(df dataframe.DataFrame, dataset string, schema types.Schema) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}

	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}

	mandatory := schema.Mandatory()
	var missing []string
	for _, col := range mandatory {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return df, &types.ValidationError{Dataset: dataset, Missing: missing}
	}

	out := df.Select(mandatory)
	if out.Err != nil {
		return df, fmt.Errorf("failed to select mandatory columns: %w", out.Err)
	}
	return out, nil
}
