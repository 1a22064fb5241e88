package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"tienda-web/core"
)

type Images struct {
	c *Client
}

func (c *Client) Images() *Images { return &Images{c: c} }

// ListOrphaned returns uploaded images no product references.
func (i *Images) ListOrphaned(ctx context.Context) ([]core.OrphanedImage, error) {
	images := []core.OrphanedImage{}
	if err := i.c.call(ctx, http.MethodGet, "/api/admin/images/orphaned", nil, true, &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (i *Images) Delete(ctx context.Context, filename string) error {
	return i.c.call(ctx, http.MethodDelete, "/api/admin/images/"+url.PathEscape(filename), nil, true, nil)
}
