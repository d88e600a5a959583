package spatial

import "github.com/go-gl/mathgl/mgl64"

// Point is a position in tree space. Quadtrees only use the first two
// components (x and z in terrain terms), octrees use all three.
type Point = mgl64.Vec3

// Vector is a displacement in tree space.
type Vector = mgl64.Vec3

// Point2 returns a planar point for quadtree queries.
func Point2(x, y float64) Point {
	return Point{x, y, 0}
}

// Point3 returns a point for octree queries.
func Point3(x, y, z float64) Point {
	return Point{x, y, z}
}

// Distance is the euclidean distance between a and b over the first dim axes.
func Distance(dim int, a, b Point) float64 {
	return truncate(dim, b.Sub(a)).Len()
}

// truncate zeroes the components a tree of the given dimension ignores.
func truncate(dim int, p Point) Point {
	for i := dim; i < len(p); i++ {
		p[i] = 0
	}
	return p
}

func equalOnAxes(dim int, a, b Point) bool {
	for i := 0; i < dim; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
