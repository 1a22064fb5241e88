package core

import (
	"context"
	"time"
)

type (
	// Item is one value in a visitor's local storage.
	Item struct {
		VisitorID string    `json:"-"`
		Key       string    `json:"key"`
		Value     []byte    `json:"value,omitempty"` // Not included in list views.
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// ItemStore is the per-visitor key/value storage the storefront keeps
	// drafts and tokens in. All operations are scoped to a visitor.
	ItemStore interface {
		// List returns metadata for every item a visitor holds, without values.
		List(ctx context.Context, visitorID string) ([]*Item, error)

		// Get returns one item. Missing items yield ErrNotFound.
		Get(ctx context.Context, visitorID, key string) (*Item, error)

		// Save creates or replaces an item.
		Save(ctx context.Context, item *Item) error

		// Delete removes an item. Deleting a missing item is not an error.
		Delete(ctx context.Context, visitorID, key string) error
	}

	// Export is a rendered design shared by link.
	Export struct {
		ContentType string
		Data        []byte
	}

	ExportStore interface {
		FindID(ctx context.Context, id string) (*Export, error)
		Create(ctx context.Context, export *Export) (string, error)
	}
)
