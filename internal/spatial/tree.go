// Package spatial implements a dimension-generic power-of-two partitioning
// tree: a quadtree when Dimension is 2 and an octree when it is 3.
//
// The tree owns its node data. Callers look at it through Node handles, which
// are cheap views recomputed per query. A handle addresses its node by the
// child index path from the root, so handles never keep parents alive and
// never need to be invalidated by the tree.
//
// Child index bit i is set when the child lies on the positive side of axis i
// relative to its parent's centre. The root is centred on the origin.
//
// Trees are not safe for concurrent use: queries must not run while a node is
// being split.
package spatial

// node is the persisted form of a tree node. A nil children slice marks a
// leaf; Split is the only place that allocates children and it always
// allocates exactly NumChildren of them.
type node[V any] struct {
	value    V
	hasValue bool
	children []node[V]
}

func (n *node[V]) isLeaf() bool {
	return n.children == nil
}

// Tree is a quadtree or octree holding an optional value of type V per node.
type Tree[V any] struct {
	cfg  Config
	root node[V]
}

// New returns a tree made of a single empty leaf.
func New[V any](cfg Config) (*Tree[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tree[V]{cfg: cfg}, nil
}

func (t *Tree[V]) Config() Config {
	return t.cfg
}

// Root returns a handle on the root node.
func (t *Tree[V]) Root() *Node[V] {
	return &Node[V]{
		tree:        t,
		data:        &t.root,
		hasGeometry: true,
		size:        t.cfg.Size,
	}
}

// InBounds reports whether p lies inside the tree extent, faces included.
func (t *Tree[V]) InBounds(p Point) bool {
	half := t.cfg.Size / 2
	for i := 0; i < t.cfg.Dimension; i++ {
		if p[i] > half || p[i] < -half {
			return false
		}
	}
	return true
}

// NodeFromPoint returns the deepest existing node containing p.
func (t *Tree[V]) NodeFromPoint(p Point) (*Node[V], bool) {
	return t.NodeFromPointDepth(p, int(t.cfg.MaxDepth))
}

// NodeFromPointDepth descends towards p and stops at the first node that is a
// leaf, is centred exactly on p, or sits at maxDepth. It returns false when p
// lies outside the tree.
func (t *Tree[V]) NodeFromPointDepth(p Point, maxDepth int) (*Node[V], bool) {
	if !t.InBounds(p) {
		return nil, false
	}
	n := t.Root()
	for !n.IsLeaf() && n.Depth() < maxDepth && !equalOnAxes(t.cfg.Dimension, n.Origin(), p) {
		n = n.child(n.childIndexFor(p))
	}
	return n, true
}

// Walk visits every node in pre-order. Returning false from fn skips the
// children of the visited node.
func (t *Tree[V]) Walk(fn func(n *Node[V]) bool) {
	t.Root().walk(fn)
}

// Stats summarises the shape of a tree.
type Stats struct {
	Nodes    int
	Leaves   int
	Valued   int
	MaxDepth int
}

func (t *Tree[V]) Stats() Stats {
	var stats Stats
	var visit func(n *node[V], depth int)
	visit = func(n *node[V], depth int) {
		stats.Nodes++
		if n.hasValue {
			stats.Valued++
		}
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		if n.isLeaf() {
			stats.Leaves++
			return
		}
		for i := range n.children {
			visit(&n.children[i], depth+1)
		}
	}
	visit(&t.root, 0)
	return stats
}
