package spatial

import "math"

// BoundingBox is an axis-aligned box over the first Dimension() axes. The zero
// value is an empty planar box; use EmptyBox for an empty box of another
// dimension. A box stays empty until it is expanded by its first point.
type BoundingBox struct {
	Min Point
	Max Point

	dim int
	set bool
}

// EmptyBox returns an empty box for the given dimension.
func EmptyBox(dim int) BoundingBox {
	return BoundingBox{dim: dim}
}

// NewBoundingBox returns the smallest box containing both corners.
func NewBoundingBox(dim int, a, b Point) BoundingBox {
	box := EmptyBox(dim)
	box.Expand(a)
	box.Expand(b)
	return box
}

// BoxAround returns the box of the given full extent centred on center.
func BoxAround(dim int, center Point, extent Vector) BoundingBox {
	half := extent.Mul(0.5)
	return NewBoundingBox(dim, center.Sub(half), center.Add(half))
}

func (b BoundingBox) Dimension() int {
	if b.dim == 0 {
		return 2
	}
	return b.dim
}

func (b BoundingBox) IsEmpty() bool {
	return !b.set
}

// Expand grows the box so that it contains p.
func (b *BoundingBox) Expand(p Point) {
	dim := b.Dimension()
	p = truncate(dim, p)
	if !b.set {
		b.Min, b.Max, b.dim, b.set = p, p, dim, true
		return
	}
	for i := 0; i < dim; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

func (b BoundingBox) Center() Point {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extent returns the full size of the box along each axis.
func (b BoundingBox) Extent() Vector {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies inside the box, faces included.
func (b BoundingBox) Contains(p Point) bool {
	if !b.set {
		return false
	}
	for i := 0; i < b.Dimension(); i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Collides reports whether the boxes overlap. Touching faces only count on the
// listed inclusive axes; on every other axis the overlap must be strict.
func (b BoundingBox) Collides(o BoundingBox, inclusive ...int) bool {
	if !b.set || !o.set {
		return false
	}
	for i := 0; i < b.Dimension(); i++ {
		if containsAxis(inclusive, i) {
			if b.Min[i] > o.Max[i] || b.Max[i] < o.Min[i] {
				return false
			}
			continue
		}
		if b.Min[i] >= o.Max[i] || b.Max[i] <= o.Min[i] {
			return false
		}
	}
	return true
}

// Intersection returns the overlapping region of two colliding boxes.
func (b BoundingBox) Intersection(o BoundingBox) (BoundingBox, bool) {
	if !b.Collides(o, allAxes(b.Dimension())...) {
		return EmptyBox(b.Dimension()), false
	}
	out := b
	for i := 0; i < b.Dimension(); i++ {
		out.Min[i] = math.Max(b.Min[i], o.Min[i])
		out.Max[i] = math.Min(b.Max[i], o.Max[i])
	}
	return out, true
}

// Union returns the smallest box containing both boxes.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if !o.set {
		return b
	}
	if !b.set {
		return o
	}
	b.Expand(o.Min)
	b.Expand(o.Max)
	return b
}

func (b BoundingBox) Translate(v Vector) BoundingBox {
	if !b.set {
		return b
	}
	v = truncate(b.Dimension(), v)
	b.Min = b.Min.Add(v)
	b.Max = b.Max.Add(v)
	return b
}

// Grow pushes every face outwards by the matching component of v.
func (b BoundingBox) Grow(v Vector) BoundingBox {
	if !b.set {
		return b
	}
	v = truncate(b.Dimension(), v)
	b.Min = b.Min.Sub(v)
	b.Max = b.Max.Add(v)
	return b
}

func containsAxis(axes []int, axis int) bool {
	for _, a := range axes {
		if a == axis {
			return true
		}
	}
	return false
}

func allAxes(dim int) []int {
	axes := make([]int, dim)
	for i := range axes {
		axes[i] = i
	}
	return axes
}
