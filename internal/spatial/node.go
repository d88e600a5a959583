package spatial

import (
	"fmt"

	"github.com/pkg/errors"
)

// Node is a transient view of one tree node. Its geometry (size, origin and
// bounding box) is derived from the index path on first access and cached for
// the lifetime of the handle. Handles are cheap; build new ones per query
// rather than keeping them across tree mutations.
type Node[V any] struct {
	tree *Tree[V]
	data *node[V]
	path []uint8

	hasGeometry bool
	size        float64
	origin      Point

	hasBox bool
	box    BoundingBox
}

func (n *Node[V]) Tree() *Tree[V] {
	return n.tree
}

// Path returns the child indices leading from the root to this node.
func (n *Node[V]) Path() []uint8 {
	return append([]uint8(nil), n.path...)
}

// Index is the slot of this node in its parent. The root reports 0.
func (n *Node[V]) Index() uint8 {
	if len(n.path) == 0 {
		return 0
	}
	return n.path[len(n.path)-1]
}

func (n *Node[V]) Depth() int {
	return len(n.path)
}

func (n *Node[V]) IsRoot() bool {
	return len(n.path) == 0
}

func (n *Node[V]) IsLeaf() bool {
	return n.data.isLeaf()
}

func (n *Node[V]) Size() float64 {
	n.computeGeometry()
	return n.size
}

// Origin is the centre of the node.
func (n *Node[V]) Origin() Point {
	n.computeGeometry()
	return n.origin
}

func (n *Node[V]) BoundingBox() BoundingBox {
	if !n.hasBox {
		dim := n.tree.cfg.Dimension
		half := n.Size() / 2
		var extent Vector
		for i := 0; i < dim; i++ {
			extent[i] = half
		}
		n.box = NewBoundingBox(dim, n.Origin().Sub(extent), n.Origin().Add(extent))
		n.hasBox = true
	}
	return n.box
}

// Value returns the value stored on the node. A node keeps its value after it
// is split, so coarse queries stopping on a branch still see one.
func (n *Node[V]) Value() (V, bool) {
	return n.data.value, n.data.hasValue
}

func (n *Node[V]) SetValue(v V) {
	n.data.value = v
	n.data.hasValue = true
}

func (n *Node[V]) ClearValue() {
	var zero V
	n.data.value = zero
	n.data.hasValue = false
}

// Parent returns a handle on the parent node, or false for the root.
func (n *Node[V]) Parent() (*Node[V], bool) {
	if n.IsRoot() {
		return nil, false
	}
	return n.tree.nodeAtPath(n.path[:len(n.path)-1]), true
}

// Child returns the child in slot i, or false for leaves and bad slots.
func (n *Node[V]) Child(i int) (*Node[V], bool) {
	if n.IsLeaf() || i < 0 || i >= len(n.data.children) {
		return nil, false
	}
	return n.child(i), true
}

// ForEachChild calls fn with every child, its centre and its size, stopping
// early when fn returns false. Leaves have no children.
func (n *Node[V]) ForEachChild(fn func(child *Node[V], origin Point, size float64) bool) {
	for i := range n.data.children {
		child := n.child(i)
		if !fn(child, child.Origin(), child.Size()) {
			return
		}
	}
}

// Split turns a leaf into a branch of empty leaves.
func (n *Node[V]) Split() error {
	if !n.IsLeaf() {
		return errors.Wrapf(ErrAlreadySplit, "split node %v", n.path)
	}
	if n.Depth() >= int(n.tree.cfg.MaxDepth) {
		return errors.Wrapf(ErrMaxDepth, "split node %v", n.path)
	}
	n.data.children = make([]node[V], n.tree.cfg.NumChildren())
	instrumentSplit(n.tree.cfg.Dimension)
	return nil
}

// Equal reports whether both handles address the same node of the same tree.
func (n *Node[V]) Equal(o *Node[V]) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.tree != o.tree || len(n.path) != len(o.path) {
		return false
	}
	for i := range n.path {
		if n.path[i] != o.path[i] {
			return false
		}
	}
	return true
}

func (n *Node[V]) String() string {
	return fmt.Sprintf("node%v@%v", n.path, n.Origin())
}

func (n *Node[V]) child(i int) *Node[V] {
	child := &Node[V]{
		tree: n.tree,
		data: &n.data.children[i],
		path: append(n.path[:len(n.path):len(n.path)], uint8(i)),
	}
	if n.hasGeometry {
		child.size = n.size / 2
		child.origin = offsetOrigin(n.tree.cfg.Dimension, n.origin, n.size, uint8(i))
		child.hasGeometry = true
	}
	return child
}

// childIndexFor picks the child whose half-space along every axis holds p.
func (n *Node[V]) childIndexFor(p Point) int {
	origin := n.Origin()
	index := 0
	for i := 0; i < n.tree.cfg.Dimension; i++ {
		if p[i] >= origin[i] {
			index |= 1 << i
		}
	}
	return index
}

func (n *Node[V]) walk(fn func(*Node[V]) bool) {
	if !fn(n) {
		return
	}
	for i := range n.data.children {
		n.child(i).walk(fn)
	}
}

func (n *Node[V]) computeGeometry() {
	if n.hasGeometry {
		return
	}
	dim := n.tree.cfg.Dimension
	size := n.tree.cfg.Size
	var origin Point
	for _, index := range n.path {
		origin = offsetOrigin(dim, origin, size, index)
		size /= 2
	}
	n.size, n.origin, n.hasGeometry = size, origin, true
}

// offsetOrigin moves a parent centre a quarter of the parent size towards the
// child in the given slot on every axis.
func offsetOrigin(dim int, parent Point, parentSize float64, index uint8) Point {
	quarter := parentSize / 4
	for i := 0; i < dim; i++ {
		if index&(1<<i) != 0 {
			parent[i] += quarter
		} else {
			parent[i] -= quarter
		}
	}
	return parent
}

// nodeAtPath follows path from the root. The path must address an existing
// node.
func (t *Tree[V]) nodeAtPath(path []uint8) *Node[V] {
	n := t.Root()
	for _, index := range path {
		n = n.child(int(index))
	}
	return n
}
