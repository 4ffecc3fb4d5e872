package types

// SourceKind 数据源类型
type SourceKind string

const (
	SourceCSV     SourceKind = "csv"
	SourceParquet SourceKind = "parquet"
	SourceSQL     SourceKind = "sql"
	SourceMinIO   SourceKind = "minio"
)

// SourceConfig 配置声明的数据源
type SourceConfig struct {
	Kind SourceKind

	// 文件 (csv / parquet)
	Path      string
	Delimiter rune

	// 数据库
	Driver string
	DSN    string
	Query  string

	// 对象存储
	Endpoint  string
	Bucket    string
	Object    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Format    SourceKind // 对象内容格式: csv 或 parquet

	// Columns 源列名 -> 标准字段键 (如 timestamp -> date)
	Columns map[string]string
}
