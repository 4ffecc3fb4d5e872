package data

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// parquetReadParallelism 列读取并发度
const parquetReadParallelism = 1

// ParquetLoader 创建读取本地 parquet 文件的加载函数
func ParquetLoader(path string, columns map[string]string) LoaderFunc {
	return func(ctx context.Context, schema types.Schema) (dataframe.DataFrame, error) {
		if err := ctx.Err(); err != nil {
			return dataframe.DataFrame{}, err
		}

		pf, err := local.NewLocalFileReader(path)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("failed to open parquet file %s: %w", path, err)
		}
		defer pf.Close()

		df, err := readParquet(pf)
		if err != nil {
			return df, fmt.Errorf("failed to read parquet %s: %w", path, err)
		}
		return standardize(df, schema, columnsOrDefault(columns, schema))
	}
}

// readParquetBytes 从内存读取 parquet
func readParquetBytes(data []byte) (dataframe.DataFrame, error) {
	pf, err := buffer.NewBufferFile(data)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return readParquet(pf)
}

// readParquet 按列读取扁平 parquet 文件, 所有值转为文本列
func readParquet(pf source.ParquetFile) (dataframe.DataFrame, error) {
	pr, err := reader.NewParquetColumnReader(pf, parquetReadParallelism)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	num := pr.GetNumRows()
	if num == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("parquet file has no rows")
	}

	sh := pr.SchemaHandler
	cols := make([]series.Series, 0, len(sh.ValueColumns))
	for _, inPath := range sh.ValueColumns {
		values, _, _, err := pr.ReadColumnByPath(inPath, num)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("failed to read column %s: %w", inPath, err)
		}
		if int64(len(values)) != num {
			return dataframe.DataFrame{}, fmt.Errorf("column %s: nested columns are not supported", inPath)
		}

		elem := sh.SchemaElements[sh.MapIndex[inPath]]
		records := make([]string, num)
		for i, v := range values {
			records[i] = parquetRecord(v, elem.GetConvertedType())
		}
		cols = append(cols, series.New(records, series.String, parquetColumnName(sh.InPathToExPath[inPath])))
	}

	df := dataframe.New(cols...)
	return df, df.Err
}

func parquetColumnName(exPath string) string {
	parts := strings.Split(exPath, common.PAR_GO_PATH_DELIMITER)
	return parts[len(parts)-1]
}

// parquetRecord 单个 parquet 值转为文本; 时间戳类型输出为 UTC 时间
func parquetRecord(v interface{}, ct parquet.ConvertedType) string {
	switch val := v.(type) {
	case nil:
		return types.NARecord
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		switch ct {
		case parquet.ConvertedType_TIMESTAMP_MILLIS:
			return time.UnixMilli(val).UTC().Format(types.AwareLayout)
		case parquet.ConvertedType_TIMESTAMP_MICROS:
			return time.UnixMicro(val).UTC().Format(types.AwareLayout)
		}
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case float64:
		return types.FormatValue(val)
	case float32:
		return types.FormatValue(float64(val))
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
