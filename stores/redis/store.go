package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"tienda-web/core"

	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type redisStore struct {
	client *goredis.Client
}

type exportRecord struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// NewStore creates a Redis-backed store from a redis:// URL.
func NewStore(url string) *redisStore {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		log.Fatalf("invalid redis url: %v", err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	return &redisStore{client: client}
}

func exportKey(id string) string { return fmt.Sprintf("export:%s", id) }

func itemKey(visitorID, key string) string { return fmt.Sprintf("item:%s:%s", visitorID, key) }

func indexKey(visitorID string) string { return fmt.Sprintf("items:%s", visitorID) }

// ExportStore implementation
func (s *redisStore) FindID(ctx context.Context, id string) (*core.Export, error) {
	data, err := s.client.Get(ctx, exportKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			logrus.WithField("export_id", id).Warn("Export with specified ID not found")
			return nil, fmt.Errorf("export %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}

	var record exportRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("export %s: %w", id, core.ErrCorruptData)
	}
	return &core.Export{ContentType: record.ContentType, Data: record.Data}, nil
}

func (s *redisStore) Create(ctx context.Context, export *core.Export) (string, error) {
	id := ulid.Make().String()
	data, err := json.Marshal(exportRecord{ContentType: export.ContentType, Data: export.Data})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, exportKey(id), data, 0).Err(); err != nil {
		logrus.WithField("export_id", id).WithError(err).Error("Failed to create export")
		return "", err
	}
	logrus.WithFields(logrus.Fields{"export_id": id, "data_length": len(export.Data)}).Info("Export created successfully")
	return id, nil
}

// ItemStore implementation
func (s *redisStore) List(ctx context.Context, visitorID string) ([]*core.Item, error) {
	keys, err := s.client.SMembers(ctx, indexKey(visitorID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	items := make([]*core.Item, 0, len(keys))
	for _, key := range keys {
		item, err := s.Get(ctx, visitorID, key)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				// Stale index entry.
				s.client.SRem(ctx, indexKey(visitorID), key)
				continue
			}
			logrus.WithFields(logrus.Fields{"visitor_id": visitorID, "key": key}).WithError(err).Warn("Skipping unreadable item")
			continue
		}
		item.Value = nil
		items = append(items, item)
	}
	return items, nil
}

func (s *redisStore) Get(ctx context.Context, visitorID, key string) (*core.Item, error) {
	data, err := s.client.Get(ctx, itemKey(visitorID, key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("item %s for visitor %s: %w", key, visitorID, core.ErrNotFound)
		}
		return nil, err
	}

	var item core.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("item %s: %w", key, core.ErrCorruptData)
	}
	item.VisitorID = visitorID
	return &item, nil
}

func (s *redisStore) Save(ctx context.Context, item *core.Item) error {
	if item.VisitorID == "" || item.Key == "" {
		return fmt.Errorf("item requires visitor and key")
	}

	now := time.Now().UTC()
	if existing, err := s.Get(ctx, item.VisitorID, item.Key); err == nil {
		item.CreatedAt = existing.CreatedAt
	} else {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, itemKey(item.VisitorID, item.Key), data, 0)
	pipe.SAdd(ctx, indexKey(item.VisitorID), item.Key)
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithFields(logrus.Fields{"visitor_id": item.VisitorID, "key": item.Key}).WithError(err).Error("Failed to save item")
		return err
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, visitorID, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, itemKey(visitorID, key))
	pipe.SRem(ctx, indexKey(visitorID), key)
	_, err := pipe.Exec(ctx)
	return err
}

// Close releases the client's connections.
func (s *redisStore) Close() error {
	return s.client.Close()
}
