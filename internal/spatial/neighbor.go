package spatial

// Neighbor returns the node adjacent to n along axis dim, towards negative
// infinity when negative is set. The result sits at the same depth as n,
// unless the region there has not been split that far, in which case the
// coarser leaf covering it is returned. Neighbors past the tree edge, and of
// the root, do not exist.
//
// Walking up from n, the first level whose index bit for dim points away from
// the requested direction is where the path turns: its slot is flipped to the
// sibling, and every slot below it is mirrored by flipping the same bit. The
// lookup costs one ascent and one descent.
func (n *Node[V]) Neighbor(dim int, negative bool) (*Node[V], bool) {
	if dim < 0 || dim >= n.tree.cfg.Dimension {
		return nil, false
	}
	bit := uint8(1) << dim

	turn := len(n.path) - 1
	for ; turn >= 0; turn-- {
		positive := n.path[turn]&bit != 0
		if positive == negative {
			break
		}
	}
	if turn < 0 {
		return nil, false
	}

	cur := n.tree.nodeAtPath(n.path[:turn])
	for _, index := range n.path[turn:] {
		if cur.IsLeaf() {
			break
		}
		cur = cur.child(int(index ^ bit))
	}
	return cur, true
}

// NeighborAt composes axis neighbours to reach the node at the given offset,
// each component being -1, 0 or 1. Axes are resolved in order (x, then y,
// then z).
//
// The composition assumes a densely generated neighbourhood: once an
// intermediate step lands on a coarser leaf, the following steps start from
// that leaf, so a diagonal may be missing or coarse in sparse regions even
// though a same-depth diagonal node exists.
func (n *Node[V]) NeighborAt(offset [3]int) (*Node[V], bool) {
	cur := n
	moved := false
	for axis := 0; axis < n.tree.cfg.Dimension; axis++ {
		if offset[axis] == 0 {
			continue
		}
		next, ok := cur.Neighbor(axis, offset[axis] < 0)
		if !ok {
			return nil, false
		}
		cur, moved = next, true
	}
	if !moved {
		return nil, false
	}
	return cur, true
}

// Neighborhood is one resolved entry around a node.
type Neighborhood[V any] struct {
	Offset [3]int
	Node   *Node[V]
}

// Neighborhood resolves every one of the 3^D - 1 offsets around n and returns
// the ones that exist, ordered by offset with x varying fastest.
func (n *Node[V]) Neighborhood() []Neighborhood[V] {
	dim := n.tree.cfg.Dimension
	var out []Neighborhood[V]
	var offset [3]int
	var fill func(axis int)
	fill = func(axis int) {
		if axis < 0 {
			if offset == [3]int{} {
				return
			}
			if nb, ok := n.NeighborAt(offset); ok {
				out = append(out, Neighborhood[V]{Offset: offset, Node: nb})
			}
			return
		}
		for _, d := range [...]int{-1, 0, 1} {
			offset[axis] = d
			fill(axis - 1)
		}
		offset[axis] = 0
	}
	fill(dim - 1)
	return out
}
