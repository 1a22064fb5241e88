package designer

import (
	"tienda-web/core"
	"tienda-web/surface"
)

// ClampPosition keeps a post-scale bounding box inside a width x height
// canvas. Boxes larger than the canvas pin to the top-left edge. Rotation is
// locked on the surface, so the box is axis-aligned.
func ClampPosition(box surface.Rect, width, height float64) core.Position {
	x, y := box.Left, box.Top
	if x+box.Width > width {
		x = width - box.Width
	}
	if x < 0 {
		x = 0
	}
	if y+box.Height > height {
		y = height - box.Height
	}
	if y < 0 {
		y = 0
	}
	return core.Position{X: x, Y: y}
}
