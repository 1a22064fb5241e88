package designer

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"tienda-web/core"
	"tienda-web/schedule"
	"tienda-web/surface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncHarness struct {
	clock *schedule.Virtual
	state *State
	scene *surface.Scene
	sync  *Synchronizer
}

func newSyncHarness(t *testing.T) *syncHarness {
	t.Helper()
	clock := schedule.NewVirtual(epoch)
	state := NewState(clock, MustLoadAssets())
	scene := surface.NewScene(CanvasWidth, CanvasHeight, nil)
	s := NewSynchronizer(scene, state, clock)
	s.Attach()
	return &syncHarness{clock: clock, state: state, scene: scene, sync: s}
}

func sceneIDs(scene *surface.Scene) []string {
	ids := []string{}
	for _, obj := range scene.Texts() {
		ids = append(ids, obj.Data)
	}
	sort.Strings(ids)
	return ids
}

func designIDs(d core.Design) []string {
	ids := []string{}
	for _, el := range d.TextElements {
		ids = append(ids, el.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestReconcileTracksDesignMembership(t *testing.T) {
	h := newSyncHarness(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		d := h.state.Design()
		switch op := rng.Intn(4); {
		case op == 0 || len(d.TextElements) == 0:
			h.state.AddText("")
		case op == 1:
			h.state.DeleteText(d.TextElements[rng.Intn(len(d.TextElements))].ID)
		case op == 2:
			color := "#D63031"
			h.state.UpdateText(d.TextElements[rng.Intn(len(d.TextElements))].ID, TextPatch{Color: &color})
		default:
			h.state.Reset()
		}
		assert.Equal(t, designIDs(h.state.Design()), sceneIDs(h.scene), "after op %d", i)
	}
}

func TestReconcileAppliesProperties(t *testing.T) {
	h := newSyncHarness(t)
	overlay := h.state.AddText("Fe")

	obj := h.scene.FindByTag(overlay.ID)
	require.NotNil(t, obj)
	assert.Equal(t, "Fe", obj.Text)
	assert.Equal(t, 100.0, obj.Left)
	assert.True(t, obj.LockRotation)

	content, family, color, size := "Esperanza", "Oswald", "#001F3F", 72.0
	pos := core.Position{X: 10, Y: 20}
	require.NoError(t, h.state.UpdateText(overlay.ID, TextPatch{
		Content: &content, FontFamily: &family, Color: &color, FontSize: &size, Position: &pos,
	}))

	assert.Equal(t, "Esperanza", obj.Text)
	assert.Equal(t, "Oswald", obj.FontFamily)
	assert.Equal(t, "#001F3F", obj.Fill)
	assert.Equal(t, 72.0, obj.FontSize)
	assert.Equal(t, 10.0, obj.Left)
	assert.Equal(t, 20.0, obj.Top)
}

func TestDragIsClampedEveryFrame(t *testing.T) {
	h := newSyncHarness(t)
	overlay := h.state.AddText("")
	w, hgt := h.scene.Size()

	targets := [][2]float64{{-500, -500}, {5000, 5000}, {-1, 9999}, {300, 300}, {599, -3}}
	for _, target := range targets {
		obj, err := h.scene.Move(overlay.ID, target[0], target[1])
		require.NoError(t, err)
		b := obj.Bounds()
		assert.GreaterOrEqual(t, b.Left, 0.0)
		assert.GreaterOrEqual(t, b.Top, 0.0)
		assert.LessOrEqual(t, b.Left+b.Width, float64(w)+1e-9)
		assert.LessOrEqual(t, b.Top+b.Height, float64(hgt)+1e-9)
	}
}

func TestRapidDragsCommitOnce(t *testing.T) {
	h := newSyncHarness(t)
	overlay := h.state.AddText("")

	commits := 0
	h.state.Subscribe(func(core.Design) { commits++ })

	for i := 1; i <= 5; i++ {
		_, err := h.scene.Move(overlay.ID, float64(20*i), float64(30*i))
		require.NoError(t, err)
		require.NoError(t, h.scene.Release(overlay.ID))
		h.clock.Advance(100 * time.Millisecond)
	}
	assert.Zero(t, commits)
	assert.True(t, h.sync.Pending())

	h.clock.Advance(CommitDelay)
	assert.Equal(t, 1, commits)
	got, _ := h.state.Design().Overlay(overlay.ID)
	assert.Equal(t, core.Position{X: 100, Y: 150}, got.Position)

	h.clock.Advance(time.Second)
	assert.Equal(t, 1, commits)
}

func TestGesturesOnSeveralObjectsCommitEachOnce(t *testing.T) {
	h := newSyncHarness(t)
	a := h.state.AddText("a")
	b := h.state.AddText("b")

	updates := map[string]int{}
	prev := h.state.Design()
	h.state.Subscribe(func(d core.Design) {
		for _, el := range d.TextElements {
			if old, _ := prev.Overlay(el.ID); old.Position != el.Position {
				updates[el.ID]++
			}
		}
		prev = d
	})

	h.scene.Move(a.ID, 10, 10)
	h.scene.Release(a.ID)
	h.scene.Move(b.ID, 50, 50)
	h.scene.Release(b.ID)
	h.scene.Move(a.ID, 20, 20)
	h.scene.Release(a.ID)
	h.clock.Advance(CommitDelay)

	assert.Equal(t, map[string]int{a.ID: 1, b.ID: 1}, updates)
	gotA, _ := h.state.Design().Overlay(a.ID)
	assert.Equal(t, core.Position{X: 20, Y: 20}, gotA.Position)
}

func TestPendingGestureKeepsSurfacePosition(t *testing.T) {
	h := newSyncHarness(t)
	overlay := h.state.AddText("")

	h.scene.Move(overlay.ID, 250, 250)
	h.scene.Release(overlay.ID)

	color := "#808080"
	require.NoError(t, h.state.UpdateText(overlay.ID, TextPatch{Color: &color}))
	obj := h.scene.FindByTag(overlay.ID)
	assert.Equal(t, 250.0, obj.Left, "unrelated edit must not snap the object back")
	assert.Equal(t, "#808080", obj.Fill)

	h.clock.Advance(CommitDelay)
	got, _ := h.state.Design().Overlay(overlay.ID)
	assert.Equal(t, core.Position{X: 250, Y: 250}, got.Position)
}

func TestControlEditDuringPendingDragWins(t *testing.T) {
	h := newSyncHarness(t)
	overlay := h.state.AddText("A")

	h.scene.Move(overlay.ID, 150, 150)
	h.scene.Release(overlay.ID)
	require.True(t, h.sync.Pending())

	content, color := "B", "#D63031"
	require.NoError(t, h.state.UpdateText(overlay.ID, TextPatch{Content: &content, Color: &color}))
	obj := h.scene.FindByTag(overlay.ID)
	assert.Equal(t, "B", obj.Text)
	assert.Equal(t, 150.0, obj.Left)

	h.clock.Advance(CommitDelay)
	got, _ := h.state.Design().Overlay(overlay.ID)
	assert.Equal(t, "B", got.Content)
	assert.Equal(t, "#D63031", got.Color)
	assert.Equal(t, core.Position{X: 150, Y: 150}, got.Position)
	assert.Equal(t, "B", obj.Text)
}

func TestControlMoveSupersedesPendingDrag(t *testing.T) {
	h := newSyncHarness(t)
	overlay := h.state.AddText("A")

	h.scene.Move(overlay.ID, 150, 150)
	h.scene.Release(overlay.ID)

	pos := core.Position{X: 20, Y: 30}
	require.NoError(t, h.state.UpdateText(overlay.ID, TextPatch{Position: &pos}))
	obj := h.scene.FindByTag(overlay.ID)
	assert.Equal(t, 20.0, obj.Left)

	h.clock.Advance(CommitDelay)
	got, _ := h.state.Design().Overlay(overlay.ID)
	assert.Equal(t, pos, got.Position)
}

func TestControlEditAfterInlineEditWins(t *testing.T) {
	h := newSyncHarness(t)
	overlay := h.state.AddText("A")

	require.NoError(t, h.scene.BeginEditing(overlay.ID))
	require.NoError(t, h.scene.EditText(overlay.ID, "inline"))
	require.NoError(t, h.scene.EndEditing(overlay.ID))

	other := h.state.AddText("otro")
	obj := h.scene.FindByTag(overlay.ID)
	assert.Equal(t, "inline", obj.Text, "unrelated change keeps the uncommitted edit")

	content := "control"
	require.NoError(t, h.state.UpdateText(overlay.ID, TextPatch{Content: &content}))
	assert.Equal(t, "control", obj.Text)

	h.clock.Advance(CommitDelay)
	got, _ := h.state.Design().Overlay(overlay.ID)
	assert.Equal(t, "control", got.Content)
	gotOther, _ := h.state.Design().Overlay(other.ID)
	assert.Equal(t, "otro", gotOther.Content)
}

func TestEditingObjectIsNotOverwritten(t *testing.T) {
	h := newSyncHarness(t)
	a := h.state.AddText("a")
	b := h.state.AddText("b")

	require.NoError(t, h.scene.BeginEditing(a.ID))
	require.NoError(t, h.scene.EditText(a.ID, "escribiendo"))

	color := "#D63031"
	require.NoError(t, h.state.UpdateText(b.ID, TextPatch{Color: &color}))
	size := 80.0
	require.NoError(t, h.state.UpdateText(a.ID, TextPatch{FontSize: &size}))

	objA := h.scene.FindByTag(a.ID)
	assert.Equal(t, "escribiendo", objA.Text)
	assert.Equal(t, 40.0, objA.FontSize)
	assert.Equal(t, "#D63031", h.scene.FindByTag(b.ID).Fill)

	require.NoError(t, h.scene.EndEditing(a.ID))
	h.clock.Advance(CommitDelay)

	got, _ := h.state.Design().Overlay(a.ID)
	assert.Equal(t, "escribiendo", got.Content)
	assert.Equal(t, 80.0, objA.FontSize, "reconciliation resumes once editing ends")
}

func TestCommitForDeletedOverlayIsDropped(t *testing.T) {
	h := newSyncHarness(t)
	overlay := h.state.AddText("")

	h.scene.Move(overlay.ID, 10, 10)
	h.scene.Release(overlay.ID)
	h.state.DeleteText(overlay.ID)
	h.clock.Advance(CommitDelay)

	assert.Empty(t, h.state.Design().TextElements)
	assert.Empty(t, h.scene.Texts())
}

func TestDisposeCancelsPendingCommits(t *testing.T) {
	h := newSyncHarness(t)
	overlay := h.state.AddText("")

	h.scene.Move(overlay.ID, 10, 10)
	h.scene.Release(overlay.ID)
	require.Equal(t, 1, h.clock.Pending())

	h.sync.Dispose()
	assert.Zero(t, h.clock.Pending())

	h.clock.Advance(time.Second)
	got, _ := h.state.Design().Overlay(overlay.ID)
	assert.Equal(t, core.Position{X: 100, Y: 100}, got.Position)

	// Detached: design changes no longer reach the scene.
	h.state.AddText("")
	assert.Len(t, h.scene.Texts(), 1)
}
