package designer

import (
	"testing"
	"time"

	"tienda-web/core"
	"tienda-web/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newState(t *testing.T) (*State, *schedule.Virtual) {
	t.Helper()
	clock := schedule.NewVirtual(epoch)
	return NewState(clock, MustLoadAssets()), clock
}

func TestStateInitialDesign(t *testing.T) {
	state, _ := newState(t)
	d := state.Design()

	assert.Empty(t, d.TemplateID)
	assert.Empty(t, d.TextElements)
	assert.Equal(t, "Blanco", d.ShirtColor.Name)
	assert.Equal(t, "#FFFFFF", d.ShirtColor.HexValue)
}

func TestAddTextDefaults(t *testing.T) {
	state, _ := newState(t)

	overlay := state.AddText("")
	assert.NotEmpty(t, overlay.ID)
	assert.Equal(t, DefaultText, overlay.Content)
	assert.Equal(t, core.Position{X: 100, Y: 100}, overlay.Position)
	assert.Equal(t, 40.0, overlay.FontSize)
	assert.Equal(t, "Work Sans", overlay.FontFamily)
	assert.Equal(t, "#000000", overlay.Color)

	other := state.AddText("Mi texto")
	assert.NotEqual(t, overlay.ID, other.ID)

	d := state.Design()
	require.Len(t, d.TextElements, 2)
	require.NotNil(t, d.UpdatedAt)
	assert.Equal(t, epoch, *d.UpdatedAt)
}

func TestOverlayContentIsSanitized(t *testing.T) {
	state, _ := newState(t)

	overlay := state.AddText(`<script>alert(1)</script><b>Fe</b> & Amor`)
	assert.Equal(t, "Fe & Amor", overlay.Content)

	content := `<img src=x onerror=alert(1)>Paz`
	require.NoError(t, state.UpdateText(overlay.ID, TextPatch{Content: &content}))
	got, _ := state.Design().Overlay(overlay.ID)
	assert.Equal(t, "Paz", got.Content)
}

func TestUpdateAndDeleteText(t *testing.T) {
	state, clock := newState(t)
	overlay := state.AddText("")

	clock.Advance(time.Minute)
	color := "#D63031"
	size := 64.0
	require.NoError(t, state.UpdateText(overlay.ID, TextPatch{Color: &color, FontSize: &size}))

	got, ok := state.Design().Overlay(overlay.ID)
	require.True(t, ok)
	assert.Equal(t, "#D63031", got.Color)
	assert.Equal(t, 64.0, got.FontSize)
	assert.Equal(t, DefaultText, got.Content)
	assert.Equal(t, epoch.Add(time.Minute), *state.Design().UpdatedAt)

	assert.ErrorIs(t, state.UpdateText("missing", TextPatch{Color: &color}), ErrUnknownOverlay)
	assert.True(t, state.DeleteText(overlay.ID))
	assert.False(t, state.DeleteText(overlay.ID))
	assert.Empty(t, state.Design().TextElements)
}

func TestSubscribersSeeEveryMutation(t *testing.T) {
	state, _ := newState(t)
	var seen []core.Design
	state.Subscribe(func(d core.Design) { seen = append(seen, d) })

	assets := MustLoadAssets()
	tpl, _ := assets.Template("cruz-radiante")
	negro, _ := assets.Color("Negro")

	state.SelectTemplate(tpl)
	overlay := state.AddText("")
	state.ChangeShirtColor(negro)
	state.DeleteText(overlay.ID)
	state.Reset()

	require.Len(t, seen, 5)
	assert.Equal(t, "cruz-radiante", seen[0].TemplateID)
	assert.Equal(t, "Cruz Radiante", seen[0].TemplateName)
	assert.Equal(t, "Negro", seen[2].ShirtColor.Name)
	assert.Empty(t, seen[4].TemplateID)
	assert.Equal(t, "Blanco", seen[4].ShirtColor.Name)

	// Subscribers get copies.
	seen[1].TextElements[0].Content = "changed"
	assert.Empty(t, state.Design().TextElements)
}

func TestRestoreReplacesDesign(t *testing.T) {
	state, _ := newState(t)
	state.AddText("old")

	created := epoch.Add(-time.Hour)
	state.Restore(core.Design{
		TemplateID:   "corazon-sagrado",
		TextElements: []core.TextOverlay{{ID: "a", Content: "nuevo"}},
		ShirtColor:   core.ShirtColor{Name: "Gris", HexValue: "#808080"},
		CreatedAt:    &created,
	})

	d := state.Design()
	assert.Equal(t, "corazon-sagrado", d.TemplateID)
	require.Len(t, d.TextElements, 1)
	assert.Equal(t, "a", d.TextElements[0].ID)
	assert.Equal(t, created, *d.CreatedAt)
	assert.Equal(t, epoch, *d.UpdatedAt)
}

func TestSelectTemplateStampsDesign(t *testing.T) {
	state, clock := newState(t)
	tpl, _ := MustLoadAssets().Template("cruz-radiante")

	clock.Advance(time.Minute)
	state.SelectTemplate(tpl)

	d := state.Design()
	require.NotNil(t, d.CreatedAt)
	require.NotNil(t, d.UpdatedAt)
	assert.Equal(t, epoch.Add(time.Minute), *d.CreatedAt)
	assert.Equal(t, epoch.Add(time.Minute), *d.UpdatedAt)
}

func TestRestoreRepairsOverlayIDs(t *testing.T) {
	state, _ := newState(t)
	state.Restore(core.Design{
		TemplateID: "corazon-sagrado",
		TextElements: []core.TextOverlay{
			{ID: "a", Content: "uno"},
			{ID: "a", Content: "dos"},
			{Content: "<b>tres</b>"},
		},
	})

	d := state.Design()
	require.Len(t, d.TextElements, 3)
	assert.Equal(t, "a", d.TextElements[0].ID)
	ids := map[string]bool{}
	for _, el := range d.TextElements {
		assert.NotEmpty(t, el.ID)
		ids[el.ID] = true
	}
	assert.Len(t, ids, 3)
	assert.Equal(t, "dos", d.TextElements[1].Content)
	assert.Equal(t, "tres", d.TextElements[2].Content)
}

func TestRestoredDuplicatesGetTheirOwnSurfaceObjects(t *testing.T) {
	h := newSyncHarness(t)
	h.state.Restore(core.Design{
		TemplateID:   "corazon-sagrado",
		TextElements: []core.TextOverlay{{ID: "a", Content: "uno"}, {ID: "a", Content: "dos"}},
	})
	assert.Equal(t, designIDs(h.state.Design()), sceneIDs(h.scene))
	assert.Len(t, h.scene.Texts(), 2)
}
