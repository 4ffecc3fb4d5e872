package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// Config 配置文件结构
type Config struct {
	Data      DataSection      `yaml:"data"`
	Resample  ResampleSection  `yaml:"resample"`
	Inference InferenceSection `yaml:"inference"`
	Logging   LoggingSection   `yaml:"logging"`
	Metrics   MetricsSection   `yaml:"metrics"`
}

// DataSection 数据加载配置
type DataSection struct {
	SourceTimezone string                   `yaml:"source_timezone"`
	Paths          map[string]string        `yaml:"paths"`
	Datasets       map[string]DatasetConfig `yaml:"datasets"`
}

// DatasetConfig 配置声明的数据集
type DatasetConfig struct {
	Kind      string            `yaml:"kind"`
	Path      string            `yaml:"path"`
	Delimiter string            `yaml:"delimiter"`
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	Query     string            `yaml:"query"`
	Endpoint  string            `yaml:"endpoint"`
	Bucket    string            `yaml:"bucket"`
	Object    string            `yaml:"object"`
	AccessKey string            `yaml:"access_key"`
	SecretKey string            `yaml:"secret_key"`
	Region    string            `yaml:"region"`
	UseSSL    bool              `yaml:"use_ssl"`
	Format    string            `yaml:"format"`
	Columns   map[string]string `yaml:"columns"`
}

// ResampleSection 重采样默认值
type ResampleSection struct {
	Freq string `yaml:"freq"`
	Agg  string `yaml:"agg"`
}

// InferenceSection 推理配置
type InferenceSection struct {
	ModelsDir string `yaml:"models_dir"`
}

// LoggingSection 日志配置
type LoggingSection struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsSection 指标配置
type MetricsSection struct {
	Namespace string `yaml:"namespace"`
	File      string `yaml:"file"`
}

// 环境变量覆盖
const (
	EnvModelsDir = "ECF_MODELS_DIR"
	EnvSourceTZ  = "ECF_SOURCE_TZ"
	EnvLogLevel  = "ECF_LOG_LEVEL"
	EnvSQLDSN    = "ECF_SQL_DSN"
	EnvAccessKey = "MINIO_ACCESS_KEY"
	EnvSecretKey = "MINIO_SECRET_KEY"
)

// LoadConfig 从文件加载配置; path 为空时使用默认配置.
// 文件中的相对路径相对于配置文件所在目录
func LoadConfig(path string) (*Config, error) {
	config := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		config.resolvePaths(filepath.Dir(path))
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadDotEnv 读取 .env 文件到环境变量, 文件不存在时忽略
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// resolvePaths 把相对路径转为相对 base 的路径
func (c *Config) resolvePaths(base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	for name, p := range c.Data.Paths {
		c.Data.Paths[name] = resolve(p)
	}
	for name, ds := range c.Data.Datasets {
		switch types.SourceKind(ds.Kind) {
		case types.SourceCSV, types.SourceParquet:
			ds.Path = resolve(ds.Path)
			c.Data.Datasets[name] = ds
		}
	}
	c.Inference.ModelsDir = resolve(c.Inference.ModelsDir)
	c.Metrics.File = resolve(c.Metrics.File)
}

// applyEnv 环境变量优先于配置文件
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvModelsDir); v != "" {
		c.Inference.ModelsDir = v
	}
	if v := os.Getenv(EnvSourceTZ); v != "" {
		c.Data.SourceTimezone = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}

	for name, ds := range c.Data.Datasets {
		if ds.Kind == string(types.SourceSQL) && ds.DSN == "" {
			ds.DSN = os.Getenv(EnvSQLDSN)
		}
		if ds.Kind == string(types.SourceMinIO) {
			if ds.AccessKey == "" {
				ds.AccessKey = os.Getenv(EnvAccessKey)
			}
			if ds.SecretKey == "" {
				ds.SecretKey = os.Getenv(EnvSecretKey)
			}
		}
		c.Data.Datasets[name] = ds
	}
}

// Validate 检查数据集声明
func (c *Config) Validate() error {
	for _, name := range c.DatasetNames() {
		ds := c.Data.Datasets[name]
		switch types.SourceKind(ds.Kind) {
		case types.SourceCSV, types.SourceParquet:
			if ds.Path == "" {
				return fmt.Errorf("dataset %s: path is required", name)
			}
		case types.SourceSQL:
			if ds.Driver == "" || ds.Query == "" {
				return fmt.Errorf("dataset %s: driver and query are required", name)
			}
		case types.SourceMinIO:
			if ds.Endpoint == "" || ds.Bucket == "" || ds.Object == "" {
				return fmt.Errorf("dataset %s: endpoint, bucket and object are required", name)
			}
		default:
			return fmt.Errorf("dataset %s: unknown kind %q", name, ds.Kind)
		}
		if len([]rune(ds.Delimiter)) > 1 {
			return fmt.Errorf("dataset %s: delimiter must be a single character", name)
		}
	}
	return nil
}

// DatasetNames 配置声明的数据集名称 (排序)
func (c *Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Data.Datasets))
	for name := range c.Data.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToSourceConfigs 转换为数据源配置
func (c *Config) ToSourceConfigs() map[string]types.SourceConfig {
	sources := make(map[string]types.SourceConfig, len(c.Data.Datasets))
	for name, ds := range c.Data.Datasets {
		src := types.SourceConfig{
			Kind:      types.SourceKind(ds.Kind),
			Path:      ds.Path,
			Driver:    ds.Driver,
			DSN:       ds.DSN,
			Query:     ds.Query,
			Endpoint:  ds.Endpoint,
			Bucket:    ds.Bucket,
			Object:    ds.Object,
			AccessKey: ds.AccessKey,
			SecretKey: ds.SecretKey,
			Region:    ds.Region,
			UseSSL:    ds.UseSSL,
			Format:    types.SourceKind(strings.ToLower(ds.Format)),
			Columns:   ds.Columns,
		}
		if ds.Delimiter != "" {
			src.Delimiter = []rune(ds.Delimiter)[0]
		}
		if src.Kind == types.SourceMinIO && src.Format == "" {
			src.Format = types.SourceCSV
		}
		sources[name] = src
	}
	return sources
}

// GetPath 获取内置数据集路径
func (c *Config) GetPath(dataset, fallback string) string {
	if p, ok := c.Data.Paths[dataset]; ok && p != "" {
		return p
	}
	return fallback
}

// GetSourceTimezone 获取无时区时间的默认时区
func (c *Config) GetSourceTimezone() string {
	if c.Data.SourceTimezone != "" {
		return c.Data.SourceTimezone
	}
	return "Asia/Bangkok"
}

// GetResampleAgg 获取默认聚合方法
func (c *Config) GetResampleAgg() string {
	if c.Resample.Agg != "" {
		return c.Resample.Agg
	}
	return "max"
}

// GetModelsDir 获取模型目录
func (c *Config) GetModelsDir() string {
	if c.Inference.ModelsDir != "" {
		return c.Inference.ModelsDir
	}
	return "models"
}

// GetLogLevel 获取日志级别
func (c *Config) GetLogLevel() string {
	if c.Logging.Level != "" {
		return c.Logging.Level
	}
	return "info"
}

// GetMetricsNamespace 获取指标命名空间
func (c *Config) GetMetricsNamespace() string {
	if c.Metrics.Namespace != "" {
		return c.Metrics.Namespace
	}
	return "ecforecast"
}
