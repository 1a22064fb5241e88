package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"tienda-web/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	exportsPrefix = "exports/"
	itemsPrefix   = "items/"
)

type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}

func (s *s3Store) read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object %s: %w", key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s: %v", key, err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// ExportStore implementation
func (s *s3Store) FindID(ctx context.Context, id string) (*core.Export, error) {
	if path.Base(id) != id {
		return nil, fmt.Errorf("export %s: %w", id, core.ErrNotFound)
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(exportsPrefix + id),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("export %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get export with id %s: %v", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export data: %v", err)
	}

	return &core.Export{ContentType: aws.ToString(resp.ContentType), Data: data}, nil
}

func (s *s3Store) Create(ctx context.Context, export *core.Export) (string, error) {
	id := ulid.Make().String()

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(exportsPrefix + id),
		Body:        bytes.NewReader(export.Data),
		ContentType: aws.String(export.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %v", err)
	}

	logrus.WithFields(logrus.Fields{"export_id": id, "bucket": s.bucket}).Info("Export uploaded")
	return id, nil
}

// ItemStore implementation
func itemKey(visitorID, key string) (string, error) {
	for _, part := range []string{visitorID, key} {
		if part == "" || part == "." || part == ".." || path.Base(part) != part {
			return "", fmt.Errorf("invalid item path component %q", part)
		}
	}
	return itemsPrefix + path.Join(visitorID, key), nil
}

func (s *s3Store) List(ctx context.Context, visitorID string) ([]*core.Item, error) {
	prefix := itemsPrefix + visitorID + "/"
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	items := []*core.Item{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list items for visitor %s: %v", visitorID, err)
		}
		for _, object := range page.Contents {
			data, err := s.read(ctx, aws.ToString(object.Key))
			if err != nil {
				logrus.WithField("key", aws.ToString(object.Key)).WithError(err).Warn("Failed to read item")
				continue
			}
			var item core.Item
			if err := json.Unmarshal(data, &item); err != nil {
				logrus.WithField("key", aws.ToString(object.Key)).WithError(err).Warn("Failed to unmarshal item")
				continue
			}
			item.VisitorID = visitorID
			item.Key = strings.TrimPrefix(aws.ToString(object.Key), prefix)
			// List views carry metadata only.
			item.Value = nil
			items = append(items, &item)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (s *s3Store) Get(ctx context.Context, visitorID, key string) (*core.Item, error) {
	objectKey, err := itemKey(visitorID, key)
	if err != nil {
		return nil, err
	}
	data, err := s.read(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	var item core.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("item %s: %w", key, core.ErrCorruptData)
	}
	item.VisitorID = visitorID
	return &item, nil
}

func (s *s3Store) Save(ctx context.Context, item *core.Item) error {
	objectKey, err := itemKey(item.VisitorID, item.Key)
	if err != nil {
		return err
	}

	// Preserve CreatedAt on update
	if item.CreatedAt.IsZero() {
		existing, err := s.Get(ctx, item.VisitorID, item.Key)
		if err == nil && existing != nil {
			item.CreatedAt = existing.CreatedAt
		} else {
			item.CreatedAt = time.Now()
		}
	}
	item.UpdatedAt = time.Now()

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %v", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save item %s: %v", item.Key, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, visitorID, key string) error {
	objectKey, err := itemKey(visitorID, key)
	if err != nil {
		return err
	}
	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %v", key, err)
	}
	return nil
}
