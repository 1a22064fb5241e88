package stores

import (
	"tienda-web/config"
	"tienda-web/core"
	"tienda-web/stores/aws"
	"tienda-web/stores/filesystem"
	"tienda-web/stores/memory"
	"tienda-web/stores/redis"
	"tienda-web/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Store is a union interface that includes all store types.
type Store interface {
	core.ItemStore
	core.ExportStore
}

func GetStore(cfg config.StorageConfig) Store {
	var store Store

	storageField := logrus.Fields{
		"storageType": cfg.Type,
		"quotaBytes":  cfg.QuotaBytes,
	}

	switch cfg.Type {
	case "filesystem":
		storageField["basePath"] = cfg.LocalPath
		store = filesystem.NewStore(cfg.LocalPath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store = sqlite.NewStore(cfg.DataSourceName)
	case "s3":
		storageField["bucketName"] = cfg.S3Bucket
		store = aws.NewStore(cfg.S3Bucket)
	case "redis":
		storageField["redisURL"] = cfg.RedisURL
		store = redis.NewStore(cfg.RedisURL)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return WithQuota(store, cfg.QuotaBytes)
}
