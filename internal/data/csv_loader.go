package data

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// 读入时视为缺失的文本
var naValues = []string{"", "NA", "NaN", "nan", "NaT", "null", "None", "<nil>"}

// readCSV 读取 CSV 为全字符串列的 DataFrame, 类型转换交给后续步骤
func readCSV(r io.Reader, delimiter rune) dataframe.DataFrame {
	if delimiter == 0 {
		delimiter = ','
	}
	return dataframe.ReadCSV(r,
		dataframe.WithDelimiter(delimiter),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
}

// ReadCSVFile 读取本地 CSV 文件, 所有列保持为字符串
func ReadCSVFile(path string, delimiter rune) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	df := readCSV(file, delimiter)
	if df.Err != nil {
		return df, fmt.Errorf("failed to read CSV %s: %w", path, df.Err)
	}
	return df, nil
}

// CSVLoader 创建读取本地 CSV 文件的加载函数
func CSVLoader(path string, columns map[string]string, delimiter rune) LoaderFunc {
	return func(ctx context.Context, schema types.Schema) (dataframe.DataFrame, error) {
		if err := ctx.Err(); err != nil {
			return dataframe.DataFrame{}, err
		}

		df, err := ReadCSVFile(path, delimiter)
		if err != nil {
			return df, err
		}
		return standardize(df, schema, columnsOrDefault(columns, schema))
	}
}

// DummyColumns 示例数据集的列映射
var DummyColumns = map[string]string{
	"timestamp": "date",
	"item_id":   "station_name",
	"EC[g/l]":   "EC[g/l]",
}

// DummyDataset 示例数据集加载函数
func DummyDataset(path string) LoaderFunc {
	return CSVLoader(path, DummyColumns, ',')
}
