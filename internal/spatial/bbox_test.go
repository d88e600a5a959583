package spatial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBoxCollides(t *testing.T) {
	a := NewBoundingBox(3, Point3(0, 0, 0), Point3(1, 1, 1))

	tests := []struct {
		name      string
		other     BoundingBox
		inclusive []int
		want      bool
	}{
		{
			name:  "overlap",
			other: NewBoundingBox(3, Point3(0.5, 0.5, 0.5), Point3(2, 2, 2)),
			want:  true,
		},
		{
			name:  "touching face is not a collision",
			other: NewBoundingBox(3, Point3(0, 1, 0), Point3(1, 2, 1)),
			want:  false,
		},
		{
			name:      "touching face on inclusive axis",
			other:     NewBoundingBox(3, Point3(0, 1, 0), Point3(1, 2, 1)),
			inclusive: []int{1},
			want:      true,
		},
		{
			name:      "touching face on another inclusive axis",
			other:     NewBoundingBox(3, Point3(0, 1, 0), Point3(1, 2, 1)),
			inclusive: []int{0},
			want:      false,
		},
		{
			name:  "apart",
			other: NewBoundingBox(3, Point3(3, 3, 3), Point3(4, 4, 4)),
			want:  false,
		},
		{
			name:  "empty",
			other: EmptyBox(3),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, a.Collides(tt.other, tt.inclusive...))
			require.Equal(t, tt.want, tt.other.Collides(a, tt.inclusive...))
		})
	}
}

func TestBoundingBoxPlanarIgnoresThirdAxis(t *testing.T) {
	a := NewBoundingBox(2, Point2(0, 0), Point2(2, 2))
	require.True(t, a.Contains(Point3(1, 1, 100)))
	require.Equal(t, 0.0, a.Max[2])
	require.Equal(t, 2, a.Dimension())
	require.Equal(t, 2, BoundingBox{}.Dimension())
}

func TestBoundingBoxIntersectionAndUnion(t *testing.T) {
	a := NewBoundingBox(2, Point2(0, 0), Point2(4, 4))
	b := NewBoundingBox(2, Point2(3, -1), Point2(6, 2))

	overlap, ok := a.Intersection(b)
	require.True(t, ok)
	require.Equal(t, Point2(3, 0), overlap.Min)
	require.Equal(t, Point2(4, 2), overlap.Max)

	_, ok = a.Intersection(NewBoundingBox(2, Point2(5, 5), Point2(6, 6)))
	require.False(t, ok)

	union := a.Union(b)
	require.Equal(t, Point2(0, -1), union.Min)
	require.Equal(t, Point2(6, 4), union.Max)
	require.Equal(t, a, a.Union(EmptyBox(2)))
	require.Equal(t, a, EmptyBox(2).Union(a))
}

func TestBoundingBoxTransforms(t *testing.T) {
	box := BoxAround(3, Point3(1, 2, 3), Vector{2, 4, 6})
	require.Equal(t, Point3(0, 0, 0), box.Min)
	require.Equal(t, Point3(2, 4, 6), box.Max)
	require.Equal(t, Point3(1, 2, 3), box.Center())
	require.Equal(t, Vector{2, 4, 6}, box.Extent())

	moved := box.Translate(Vector{1, -1, 0})
	require.Equal(t, Point3(1, -1, 0), moved.Min)

	grown := box.Grow(Vector{1, 1, 1})
	require.Equal(t, Point3(-1, -1, -1), grown.Min)
	require.Equal(t, Point3(3, 5, 7), grown.Max)

	var empty BoundingBox
	require.True(t, empty.IsEmpty())
	empty.Expand(Point2(1, 1))
	require.False(t, empty.IsEmpty())
	require.True(t, empty.Contains(Point2(1, 1)))
}

func TestDistance(t *testing.T) {
	require.Equal(t, 5.0, Distance(2, Point2(0, 0), Point3(3, 4, 100)))
	require.Equal(t, 3.0, Distance(3, Point3(1, 2, 2), Point3(0, 0, 0)))
}
