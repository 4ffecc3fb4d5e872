package data

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gota/gota/dataframe"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// LoaderFunc 数据集加载函数: 读取一个固定数据源, 按 schema 重命名列
type LoaderFunc func(ctx context.Context, schema types.Schema) (dataframe.DataFrame, error)

// Registry 数据集名称 -> 加载函数
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]LoaderFunc
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]LoaderFunc)}
}

// Register 注册加载函数, 名称为空或重复时 panic
func (r *Registry) Register(name string, fn LoaderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" || fn == nil {
		panic("data: Register requires a name and a loader")
	}
	if _, exists := r.loaders[name]; exists {
		panic(fmt.Sprintf("data: loader %q already registered", name))
	}
	r.loaders[name] = fn
}

// Get 查找加载函数, 未注册时返回 LookupError
func (r *Registry) Get(name string) (LoaderFunc, error) {
	r.mu.RLock()
	fn, ok := r.loaders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &types.LookupError{Kind: "dataset", Name: name, Available: r.Names()}
	}
	return fn, nil
}

// Names 已注册的数据集名称 (排序)
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
