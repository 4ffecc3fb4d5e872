package data

import (
	"fmt"
	"sort"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// DefaultDummyPath 未配置路径时的示例数据路径 (相对当前目录)
const DefaultDummyPath = "internal/data/testdata/dummy_data.csv"

// RegisterBuiltins 注册内置数据集
func RegisterBuiltins(reg *Registry, dummyPath string) {
	if dummyPath == "" {
		dummyPath = DefaultDummyPath
	}
	reg.Register("DummyDataset", DummyDataset(dummyPath))
}

// NewSourceLoader 根据数据源配置创建加载函数
func NewSourceLoader(src types.SourceConfig) (LoaderFunc, error) {
	switch src.Kind {
	case types.SourceCSV:
		return CSVLoader(src.Path, src.Columns, src.Delimiter), nil
	case types.SourceParquet:
		return ParquetLoader(src.Path, src.Columns), nil
	case types.SourceSQL:
		return SQLLoader(src.Driver, src.DSN, src.Query, src.Columns), nil
	case types.SourceMinIO:
		store, err := NewMinIOStore(src)
		if err != nil {
			return nil, err
		}
		return ObjectLoader(store, src), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// RegisterSources 注册配置声明的数据集
func RegisterSources(reg *Registry, sources map[string]types.SourceConfig) error {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := reg.Get(name); err == nil {
			return fmt.Errorf("dataset %s: already registered", name)
		}
		fn, err := NewSourceLoader(sources[name])
		if err != nil {
			return fmt.Errorf("dataset %s: %w", name, err)
		}
		reg.Register(name, fn)
	}
	return nil
}
