package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tienda-web/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// memStore implements both ExportStore and ItemStore for in-memory storage.
type memStore struct {
	mu      sync.RWMutex
	exports map[string]core.Export
	// items is keyed by visitorID, then by item key.
	items map[string]map[string]*core.Item
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		exports: make(map[string]core.Export),
		items:   make(map[string]map[string]*core.Item),
	}
}

// FindID retrieves an export by its ID. Part of the ExportStore interface.
func (s *memStore) FindID(ctx context.Context, id string) (*core.Export, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("export_id", id)
	if val, ok := s.exports[id]; ok {
		log.Debug("Export retrieved successfully")
		return &val, nil
	}
	log.Warn("Export with specified ID not found")
	return nil, fmt.Errorf("export %s: %w", id, core.ErrNotFound)
}

// Create stores a new export. Part of the ExportStore interface.
func (s *memStore) Create(ctx context.Context, export *core.Export) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ulid.Make().String()
	s.exports[id] = core.Export{
		ContentType: export.ContentType,
		Data:        append([]byte(nil), export.Data...),
	}
	logrus.WithFields(logrus.Fields{
		"export_id":   id,
		"data_length": len(export.Data),
	}).Info("Export created successfully")

	return id, nil
}

// List returns metadata for all items a visitor holds. Part of the ItemStore interface.
func (s *memStore) List(ctx context.Context, visitorID string) ([]*core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visitorItems, ok := s.items[visitorID]
	if !ok {
		return []*core.Item{}, nil
	}

	items := make([]*core.Item, 0, len(visitorItems))
	for _, item := range visitorItems {
		items = append(items, &core.Item{
			VisitorID: item.VisitorID,
			Key:       item.Key,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })

	logrus.WithField("visitor_id", visitorID).Debugf("Listed %d items", len(items))
	return items, nil
}

// Get returns a single item. Part of the ItemStore interface.
func (s *memStore) Get(ctx context.Context, visitorID, key string) (*core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[visitorID][key]
	if !ok {
		logrus.WithFields(logrus.Fields{"visitor_id": visitorID, "key": key}).Debug("Item not found")
		return nil, fmt.Errorf("item %s for visitor %s: %w", key, visitorID, core.ErrNotFound)
	}

	out := *item
	out.Value = append([]byte(nil), item.Value...)
	return &out, nil
}

// Save creates or updates an item. Part of the ItemStore interface.
func (s *memStore) Save(ctx context.Context, item *core.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.VisitorID == "" {
		return fmt.Errorf("VisitorID cannot be empty")
	}
	if item.Key == "" {
		return fmt.Errorf("item key cannot be empty")
	}

	visitorItems, ok := s.items[item.VisitorID]
	if !ok {
		visitorItems = make(map[string]*core.Item)
		s.items[item.VisitorID] = visitorItems
	}

	now := time.Now()
	if existing, exists := visitorItems[item.Key]; exists {
		item.CreatedAt = existing.CreatedAt
	} else {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	stored := *item
	stored.Value = append([]byte(nil), item.Value...)
	visitorItems[item.Key] = &stored

	logrus.WithFields(logrus.Fields{"visitor_id": item.VisitorID, "key": item.Key}).Debug("Item saved successfully")
	return nil
}

// Delete removes an item. Part of the ItemStore interface.
func (s *memStore) Delete(ctx context.Context, visitorID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if visitorItems, ok := s.items[visitorID]; ok {
		delete(visitorItems, key)
		if len(visitorItems) == 0 {
			delete(s.items, visitorID)
		}
	}
	logrus.WithFields(logrus.Fields{"visitor_id": visitorID, "key": key}).Debug("Item deleted")
	return nil
}
