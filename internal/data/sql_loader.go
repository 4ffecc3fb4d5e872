package data

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// SQLLoader 创建执行查询并读取结果集的加载函数 (driver: postgres / sqlite)
func SQLLoader(driver, dsn, query string, columns map[string]string) LoaderFunc {
	return func(ctx context.Context, schema types.Schema) (dataframe.DataFrame, error) {
		db, err := sqlx.Open(driver, dsn)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("failed to open database connection: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("failed to ping database: %w", err)
		}

		df, err := queryFrame(ctx, db, query)
		if err != nil {
			return df, err
		}
		return standardize(df, schema, columnsOrDefault(columns, schema))
	}
}

// queryFrame 执行查询, 结果集转为全文本列
func queryFrame(ctx context.Context, db *sqlx.DB, query string) (dataframe.DataFrame, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read columns: %w", err)
	}
	names := make([]string, len(colTypes))
	aware := make([]bool, len(colTypes))
	for i, ct := range colTypes {
		names[i] = ct.Name()
		aware[i] = awareColumnType(ct.DatabaseTypeName())
	}

	records := make([][]string, len(names))
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			records[i] = append(records[i], sqlRecord(v, aware[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to iterate rows: %w", err)
	}
	if len(names) == 0 || len(records[0]) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("query returned no rows")
	}

	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = series.New(records[i], series.String, name)
	}
	df := dataframe.New(cols...)
	return df, df.Err
}

// awareColumnType 列类型是否带时区 (postgres timestamptz / timetz)
func awareColumnType(name string) bool {
	switch strings.ToUpper(name) {
	case "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE", "TIMETZ", "TIME WITH TIME ZONE":
		return true
	}
	return false
}

// sqlRecord 驱动返回值转为文本.
// 无时区列 (DATETIME, TIMESTAMP) 被驱动解析为 UTC 的 time.Time, 输出为 naive 墙上时间,
// 交由时区标准化按源时区解释.
func sqlRecord(v interface{}, aware bool) string {
	switch val := v.(type) {
	case nil:
		return types.NARecord
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		if !aware && val.Location() == time.UTC {
			return val.Format(types.NaiveLayout)
		}
		return val.Format(types.AwareLayout)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return types.FormatValue(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
