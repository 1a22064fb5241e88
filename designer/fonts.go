package designer

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"tienda-web/core"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FontLoader checks that the webfont stylesheets behind the font table are
// reachable. Failed families render in the fallback face.
type FontLoader struct {
	client *http.Client

	mu     sync.Mutex
	loaded map[string]bool
}

func NewFontLoader(client *http.Client) *FontLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &FontLoader{client: client, loaded: make(map[string]bool)}
}

// Preload fetches every font concurrently. Failures are logged and swallowed.
func (l *FontLoader) Preload(ctx context.Context, fonts []core.Font) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, f := range fonts {
		f := f
		g.Go(func() error {
			if err := l.load(ctx, f); err != nil {
				logrus.WithField("font", f.Family).WithError(err).Warn("Failed to load font")
			}
			return nil
		})
	}
	return g.Wait()
}

func (l *FontLoader) load(ctx context.Context, f core.Font) error {
	if l.IsLoaded(f.Family) {
		return nil
	}
	if f.WebfontURL == "" {
		logrus.WithField("font", f.Family).Warn("No webfont URL provided")
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.WebfontURL, nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	l.mu.Lock()
	l.loaded[f.Family] = true
	l.mu.Unlock()
	return nil
}

func (l *FontLoader) IsLoaded(family string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[family]
}
