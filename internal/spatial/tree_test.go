package spatial

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTree[V any](t *testing.T, dim int, size float64, maxDepth uint32) *Tree[V] {
	t.Helper()
	tree, err := New[V](Config{Dimension: dim, Size: size, MaxDepth: maxDepth})
	require.NoError(t, err)
	return tree
}

// splitTo splits every leaf until all leaves sit at depth.
func splitTo[V any](t *testing.T, tree *Tree[V], depth int) {
	t.Helper()
	tree.Walk(func(n *Node[V]) bool {
		if n.Depth() >= depth {
			return false
		}
		if n.IsLeaf() {
			require.NoError(t, n.Split())
		}
		return true
	})
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "one dimension", cfg: Config{Dimension: 1, Size: 8, MaxDepth: 3}},
		{name: "four dimensions", cfg: Config{Dimension: 4, Size: 8, MaxDepth: 3}},
		{name: "zero size", cfg: Config{Dimension: 2, Size: 0, MaxDepth: 3}},
		{name: "negative size", cfg: Config{Dimension: 3, Size: -4, MaxDepth: 3}},
		{name: "infinite size", cfg: Config{Dimension: 2, Size: math.Inf(1), MaxDepth: 3}},
		{name: "min size underflow", cfg: Config{Dimension: 2, Size: 1, MaxDepth: 4000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[int](tt.cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfigDerivedValues(t *testing.T) {
	cfg := Config{Dimension: 3, Size: 64, MaxDepth: 4}
	require.Equal(t, 8, cfg.NumChildren())
	require.Equal(t, 4.0, cfg.MinSize())
	require.Equal(t, []uint8{1, 2, 4}, cfg.DimensionBits())
	require.Equal(t, 16.0, cfg.SizeAt(2))
}

func TestNodeFromPointFixture(t *testing.T) {
	tree := newTestTree[int](t, 2, 8, 3)
	root := tree.Root()
	require.NoError(t, root.Split())
	for q := 0; q < 4; q++ {
		quadrant, ok := root.Child(q)
		require.True(t, ok)
		require.NoError(t, quadrant.Split())
		for c := 0; c < 4; c++ {
			leaf, ok := quadrant.Child(c)
			require.True(t, ok)
			leaf.SetValue(q*4 + c)
		}
	}

	n, ok := tree.NodeFromPoint(Point2(-3, -3))
	require.True(t, ok)
	v, ok := n.Value()
	require.True(t, ok)
	require.Equal(t, 0, v)

	n, ok = tree.NodeFromPoint(Point2(3, 3))
	require.True(t, ok)
	v, ok = n.Value()
	require.True(t, ok)
	require.Equal(t, 15, v)

	n, ok = tree.NodeFromPoint(Point2(0, 0))
	require.True(t, ok)
	require.True(t, n.IsRoot())

	n, ok = tree.NodeFromPoint(Point2(-1.5, 2.5))
	require.True(t, ok)
	v, _ = n.Value()
	require.Equal(t, 2*4+3, v)
	require.Equal(t, Point2(-1, 3), n.Origin())
}

func TestNodeFromPointOutsideExtent(t *testing.T) {
	tree := newTestTree[int](t, 3, 8, 3)

	_, ok := tree.NodeFromPoint(Point3(4.01, 0, 0))
	require.False(t, ok)
	_, ok = tree.NodeFromPoint(Point3(0, 0, -5))
	require.False(t, ok)

	n, ok := tree.NodeFromPoint(Point3(4, -4, 4))
	require.True(t, ok)
	require.True(t, n.IsRoot())
}

func TestNodeFromPointDepthStopsEarly(t *testing.T) {
	tree := newTestTree[int](t, 2, 16, 4)
	splitTo(t, tree, 4)

	n, ok := tree.NodeFromPointDepth(Point2(5.5, -7.5), 2)
	require.True(t, ok)
	require.Equal(t, 2, n.Depth())
	require.True(t, n.BoundingBox().Contains(Point2(5.5, -7.5)))

	n, ok = tree.NodeFromPoint(Point2(5.5, -7.5))
	require.True(t, ok)
	require.Equal(t, 4, n.Depth())
	require.Equal(t, Point2(5.5, -7.5), n.Origin())
}

func TestContainmentAndSizeLaw(t *testing.T) {
	for _, dim := range []int{2, 3} {
		tree := newTestTree[int](t, dim, 32, 3)
		splitTo(t, tree, 3)
		rng := rand.New(rand.NewPCG(7, uint64(dim)))

		points := []Point{{16, 16, 16}, {-16, -16, -16}, {16, -16, 0}, {0, 0, 0}}
		for i := 0; i < 500; i++ {
			var p Point
			for axis := 0; axis < dim; axis++ {
				p[axis] = rng.Float64()*32 - 16
			}
			points = append(points, p)
		}

		for _, p := range points {
			n, ok := tree.NodeFromPoint(p)
			require.True(t, ok, "point %v", p)
			require.True(t, n.BoundingBox().Contains(p), "node %v does not contain %v", n, p)
			require.Equal(t, 32/math.Pow(2, float64(n.Depth())), n.Size())
		}
	}

	tree := newTestTree[int](t, 3, 32, 3)
	require.Equal(t, 0, tree.Root().Depth())
	require.Equal(t, 32.0, tree.Root().Size())
	require.Equal(t, Point{}, tree.Root().Origin())
}

func TestSplitErrors(t *testing.T) {
	tree := newTestTree[int](t, 2, 4, 1)
	root := tree.Root()
	require.NoError(t, root.Split())
	require.ErrorIs(t, root.Split(), ErrAlreadySplit)

	child, ok := root.Child(0)
	require.True(t, ok)
	require.ErrorIs(t, child.Split(), ErrMaxDepth)
	require.True(t, child.IsLeaf())
}

func TestSplitKeepsBranchValueAndCreatesEmptyLeaves(t *testing.T) {
	tree := newTestTree[float64](t, 2, 8, 3)
	root := tree.Root()
	root.SetValue(12.5)
	require.NoError(t, root.Split())

	v, ok := tree.Root().Value()
	require.True(t, ok)
	require.Equal(t, 12.5, v)

	count := 0
	root.ForEachChild(func(child *Node[float64], origin Point, size float64) bool {
		_, has := child.Value()
		require.False(t, has)
		require.True(t, child.IsLeaf())
		require.Equal(t, 4.0, size)
		require.Equal(t, 2.0, math.Abs(origin[0]))
		require.Equal(t, 2.0, math.Abs(origin[1]))
		require.Equal(t, origin[0] > 0, child.Index()&1 != 0)
		require.Equal(t, origin[1] > 0, child.Index()&2 != 0)
		count++
		return true
	})
	require.Equal(t, 4, count)
}

func TestParentRecomputesFromPath(t *testing.T) {
	tree := newTestTree[int](t, 3, 16, 3)
	splitTo(t, tree, 3)

	n, ok := tree.NodeFromPoint(Point3(7, -1, 3))
	require.True(t, ok)
	require.Equal(t, 3, n.Depth())

	parent, ok := n.Parent()
	require.True(t, ok)
	require.Equal(t, 2, parent.Depth())
	require.True(t, parent.BoundingBox().Contains(n.Origin()))

	child, ok := parent.Child(int(n.Index()))
	require.True(t, ok)
	require.True(t, child.Equal(n))

	_, ok = tree.Root().Parent()
	require.False(t, ok)
}

func TestStatsCountsNodes(t *testing.T) {
	tree := newTestTree[int](t, 2, 8, 3)
	splitTo(t, tree, 2)
	tree.Root().SetValue(1)

	stats := tree.Stats()
	require.Equal(t, 1+4+16, stats.Nodes)
	require.Equal(t, 16, stats.Leaves)
	require.Equal(t, 1, stats.Valued)
	require.Equal(t, 2, stats.MaxDepth)
}

func TestSnapshotRestoresTree(t *testing.T) {
	tree := newTestTree[uint32](t, 3, 8, 2)
	root := tree.Root()
	require.NoError(t, root.Split())
	child, _ := root.Child(5)
	require.NoError(t, child.Split())
	grandchild, _ := child.Child(2)
	grandchild.SetValue(42)

	restored, err := FromSnapshot(tree.Snapshot())
	require.NoError(t, err)
	require.Equal(t, tree.Stats(), restored.Stats())

	n, ok := restored.NodeFromPoint(grandchild.Origin())
	require.True(t, ok)
	v, ok := n.Value()
	require.True(t, ok)
	require.Equal(t, uint32(42), v)

	broken := tree.Snapshot()
	broken.Nodes = broken.Nodes[:3]
	_, err = FromSnapshot(broken)
	require.ErrorIs(t, err, ErrCorruptSnapshot)
}
