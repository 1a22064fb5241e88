package stores

import (
	"context"
	"fmt"
	"io"

	"tienda-web/core"

	"github.com/sirupsen/logrus"
)

type quotaStore struct {
	Store
	limit int
}

// WithQuota rejects item values larger than limit bytes, the way a browser
// rejects writes past its local storage quota.
func WithQuota(store Store, limit int) Store {
	if limit <= 0 {
		return store
	}
	return &quotaStore{Store: store, limit: limit}
}

func (s *quotaStore) Save(ctx context.Context, item *core.Item) error {
	if len(item.Value) > s.limit {
		logrus.WithFields(logrus.Fields{
			"visitor_id": item.VisitorID,
			"key":        item.Key,
			"size":       len(item.Value),
			"limit":      s.limit,
		}).Warn("Item exceeds storage quota")
		return fmt.Errorf("item %s is %d bytes, limit %d: %w", item.Key, len(item.Value), s.limit, core.ErrQuotaExceeded)
	}
	return s.Store.Save(ctx, item)
}

// Close releases the wrapped backend's resources, if it holds any.
func (s *quotaStore) Close() error {
	if c, ok := s.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
