package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tienda-web/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	for _, dir := range []string{basePath, filepath.Join(basePath, "exports"), filepath.Join(basePath, "items")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create storage directory: %v", err)
		}
	}
	return &fsStore{basePath: basePath}
}

// resolve joins name under dir and refuses anything that escapes it.
func resolve(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid name %q: access denied", name)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid name %q: access denied", name)
	}
	return absPath, nil
}

// ExportStore implementation
func (s *fsStore) FindID(ctx context.Context, id string) (*core.Export, error) {
	log := logrus.WithField("export_id", id)

	filePath, err := resolve(filepath.Join(s.basePath, "exports"), id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Export with specified ID not found")
			return nil, fmt.Errorf("export %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve export")
		return nil, err
	}

	var export core.Export
	if err := json.Unmarshal(data, &export); err != nil {
		log.WithError(err).Error("Failed to unmarshal export")
		return nil, fmt.Errorf("export %s: %w", id, core.ErrCorruptData)
	}
	return &export, nil
}

func (s *fsStore) Create(ctx context.Context, export *core.Export) (string, error) {
	id := ulid.Make().String()
	filePath := filepath.Join(s.basePath, "exports", id)
	log := logrus.WithFields(logrus.Fields{
		"export_id": id,
		"file_path": filePath,
	})

	data, err := json.Marshal(export)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to create export")
		return "", err
	}

	log.Info("Export created successfully")
	return id, nil
}

// ItemStore implementation
func (s *fsStore) visitorPath(visitorID string) (string, error) {
	return resolve(filepath.Join(s.basePath, "items"), visitorID)
}

func (s *fsStore) itemPath(visitorID, key string) (string, error) {
	dir, err := s.visitorPath(visitorID)
	if err != nil {
		return "", err
	}
	return resolve(dir, key)
}

func (s *fsStore) List(ctx context.Context, visitorID string) ([]*core.Item, error) {
	visitorPath, err := s.visitorPath(visitorID)
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("visitor_id", visitorID).WithField("path", visitorPath)

	files, err := os.ReadDir(visitorPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*core.Item{}, nil
		}
		log.WithError(err).Error("Failed to read visitor directory")
		return nil, err
	}

	items := make([]*core.Item, 0, len(files))
	for _, file := range files {
		if file.IsDir() || strings.HasSuffix(file.Name(), ".tmp") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(visitorPath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read item file %s, skipping", file.Name())
			continue
		}
		var item core.Item
		if err := json.Unmarshal(data, &item); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal item file %s, skipping", file.Name())
			continue
		}
		item.VisitorID = visitorID
		item.Value = nil
		items = append(items, &item)
	}

	log.Debugf("Listed %d items", len(items))
	return items, nil
}

func (s *fsStore) Get(ctx context.Context, visitorID, key string) (*core.Item, error) {
	filePath, err := s.itemPath(visitorID, key)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"visitor_id": visitorID, "key": key, "path": filePath})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("item %s for visitor %s: %w", key, visitorID, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read item file")
		return nil, err
	}

	var item core.Item
	if err := json.Unmarshal(data, &item); err != nil {
		log.WithError(err).Error("Failed to unmarshal item")
		return nil, fmt.Errorf("item %s: %w", key, core.ErrCorruptData)
	}
	item.VisitorID = visitorID
	return &item, nil
}

func (s *fsStore) Save(ctx context.Context, item *core.Item) error {
	filePath, err := s.itemPath(item.VisitorID, item.Key)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"visitor_id": item.VisitorID, "key": item.Key, "path": filePath})

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		log.WithError(err).Error("Failed to create visitor directory")
		return err
	}

	now := time.Now()
	item.CreatedAt = now
	if existing, err := s.Get(ctx, item.VisitorID, item.Key); err == nil {
		item.CreatedAt = existing.CreatedAt
	}
	item.UpdatedAt = now

	data, err := json.Marshal(item)
	if err != nil {
		log.WithError(err).Error("Failed to marshal item for saving")
		return err
	}

	// Write then rename so readers never observe a partial value.
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write item file")
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		log.WithError(err).Error("Failed to move item file into place")
		return err
	}
	return nil
}

func (s *fsStore) Delete(ctx context.Context, visitorID, key string) error {
	filePath, err := s.itemPath(visitorID, key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		logrus.WithFields(logrus.Fields{"visitor_id": visitorID, "key": key}).WithError(err).Error("Failed to delete item file")
		return err
	}
	return nil
}
