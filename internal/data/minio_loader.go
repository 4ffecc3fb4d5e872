package data

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/go-gota/gota/dataframe"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// ObjectStore 对象存储读取接口
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// MinIOStore 基于 minio-go 的对象存储
type MinIOStore struct {
	client *minio.Client
}

// NewMinIOStore 创建 MinIO/S3 客户端
func NewMinIOStore(src types.SourceConfig) (*MinIOStore, error) {
	if src.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if src.AccessKey == "" || src.SecretKey == "" {
		return nil, fmt.Errorf("credentials are required")
	}

	// 支持 http(s)://host:port 形式
	endpoint := src.Endpoint
	useSSL := src.UseSSL
	if u, err := url.Parse(src.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(src.AccessKey, src.SecretKey, ""),
		Secure: useSSL,
		Region: src.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinIOStore{client: client}, nil
}

// GetObject 读取整个对象
func (s *MinIOStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// ObjectLoader 创建从对象存储读取 csv 或 parquet 对象的加载函数
func ObjectLoader(store ObjectStore, src types.SourceConfig) LoaderFunc {
	return func(ctx context.Context, schema types.Schema) (dataframe.DataFrame, error) {
		data, err := store.GetObject(ctx, src.Bucket, src.Object)
		if err != nil {
			return dataframe.DataFrame{}, err
		}

		var df dataframe.DataFrame
		switch src.Format {
		case types.SourceParquet:
			df, err = readParquetBytes(data)
		case types.SourceCSV, "":
			df = readCSV(bytes.NewReader(data), src.Delimiter)
			err = df.Err
		default:
			return dataframe.DataFrame{}, fmt.Errorf("unsupported object format %q", src.Format)
		}
		if err != nil {
			return df, fmt.Errorf("failed to decode object %s/%s: %w", src.Bucket, src.Object, err)
		}
		return standardize(df, schema, columnsOrDefault(src.Columns, schema))
	}
}
