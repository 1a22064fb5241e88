package designer

import (
	"context"
	"testing"
	"time"

	"tienda-web/core"
	"tienda-web/stores/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftRoundTrip(t *testing.T) {
	ctx := context.Background()
	drafts := NewDrafts(memory.NewStore(), "visitor-1")

	created := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	updated := created.Add(90 * time.Second)
	design := core.Design{
		TemplateID:   "cruz-radiante",
		TemplateName: "Cruz Radiante",
		TextElements: []core.TextOverlay{{
			ID: "01HX", Content: "Fe", Position: core.Position{X: 12.5, Y: 300},
			FontSize: 40, FontFamily: "Oswald", Color: "#D63031",
		}},
		ShirtColor: core.ShirtColor{Name: "Negro", HexValue: "#000000", MockupURL: "/mockups/black-tshirt.png"},
		CreatedAt:  &created,
		UpdatedAt:  &updated,
	}

	require.NoError(t, drafts.Save(ctx, design))
	loaded, err := drafts.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, design, *loaded)
}

func TestLoadWithoutDraft(t *testing.T) {
	loaded, err := NewDrafts(memory.NewStore(), "visitor-1").Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCorruptDraftIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, &core.Item{VisitorID: "visitor-1", Key: DraftKey, Value: []byte("{not json")}))

	loaded, err := NewDrafts(store, "visitor-1").Load(ctx)
	assert.NoError(t, err)
	assert.Nil(t, loaded)

	_, err = store.Get(ctx, "visitor-1", DraftKey)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDraftsAreScopedToVisitor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, NewDrafts(store, "a").Save(ctx, core.Design{TemplateID: "cruz-radiante"}))

	loaded, err := NewDrafts(store, "b").Load(ctx)
	assert.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, NewDrafts(store, "a").Clear(ctx))
	loaded, _ = NewDrafts(store, "a").Load(ctx)
	assert.Nil(t, loaded)
}
