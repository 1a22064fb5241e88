package designer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tienda-web/core"

	"github.com/sirupsen/logrus"
)

// DraftKey is the local-storage key holding the visitor's design draft.
const DraftKey = "tshirt-design-draft"

var ErrSerialize = errors.New("designer: failed to serialize design")

// Drafts persists one visitor's in-progress design.
type Drafts struct {
	store     core.ItemStore
	visitorID string
}

func NewDrafts(store core.ItemStore, visitorID string) *Drafts {
	return &Drafts{store: store, visitorID: visitorID}
}

func (d *Drafts) Save(ctx context.Context, design core.Design) error {
	data, err := json.Marshal(design)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return d.store.Save(ctx, &core.Item{VisitorID: d.visitorID, Key: DraftKey, Value: data})
}

// Load returns the stored draft, or nil if there is none. A draft that
// cannot be decoded is deleted and reported as absent.
func (d *Drafts) Load(ctx context.Context) (*core.Design, error) {
	log := logrus.WithFields(logrus.Fields{"visitor_id": d.visitorID, "key": DraftKey})

	item, err := d.store.Get(ctx, d.visitorID, DraftKey)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return nil, nil
	case errors.Is(err, core.ErrCorruptData):
		log.WithError(err).Warn("Discarding corrupt design draft")
		return nil, d.Clear(ctx)
	case err != nil:
		return nil, err
	}
	if len(item.Value) == 0 {
		return nil, nil
	}

	var design core.Design
	if err := json.Unmarshal(item.Value, &design); err != nil {
		log.WithError(err).Warn("Discarding corrupt design draft")
		return nil, d.Clear(ctx)
	}
	return &design, nil
}

func (d *Drafts) Clear(ctx context.Context) error {
	if err := d.store.Delete(ctx, d.visitorID, DraftKey); err != nil {
		logrus.WithField("visitor_id", d.visitorID).WithError(err).Error("Failed to clear design draft")
		return err
	}
	return nil
}
