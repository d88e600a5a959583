package spatial

import "github.com/pkg/errors"

// ErrCorruptSnapshot is returned when a snapshot does not describe a tree.
var ErrCorruptSnapshot = errors.New("corrupt tree snapshot")

// Snapshot is a flat, encodable copy of a tree: its config and its nodes in
// pre-order, children in slot order.
type Snapshot[V any] struct {
	Config Config
	Nodes  []SnapshotNode[V]
}

type SnapshotNode[V any] struct {
	Branch   bool
	HasValue bool
	Value    V
}

func (t *Tree[V]) Snapshot() *Snapshot[V] {
	s := &Snapshot[V]{Config: t.cfg}
	var visit func(n *node[V])
	visit = func(n *node[V]) {
		s.Nodes = append(s.Nodes, SnapshotNode[V]{
			Branch:   !n.isLeaf(),
			HasValue: n.hasValue,
			Value:    n.value,
		})
		for i := range n.children {
			visit(&n.children[i])
		}
	}
	visit(&t.root)
	return s
}

// FromSnapshot rebuilds the tree a snapshot was taken from.
func FromSnapshot[V any](s *Snapshot[V]) (*Tree[V], error) {
	if s == nil {
		return nil, errors.Wrap(ErrCorruptSnapshot, "nil snapshot")
	}
	t, err := New[V](s.Config)
	if err != nil {
		return nil, err
	}

	next := 0
	var restore func(n *node[V], depth int) error
	restore = func(n *node[V], depth int) error {
		if next >= len(s.Nodes) {
			return errors.Wrapf(ErrCorruptSnapshot, "truncated at node %d", next)
		}
		entry := s.Nodes[next]
		next++
		n.value, n.hasValue = entry.Value, entry.HasValue
		if !entry.Branch {
			return nil
		}
		if depth >= int(s.Config.MaxDepth) {
			return errors.Wrapf(ErrCorruptSnapshot, "branch below max depth at node %d", next-1)
		}
		n.children = make([]node[V], s.Config.NumChildren())
		for i := range n.children {
			if err := restore(&n.children[i], depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := restore(&t.root, 0); err != nil {
		return nil, err
	}
	if next != len(s.Nodes) {
		return nil, errors.Wrapf(ErrCorruptSnapshot, "%d trailing nodes", len(s.Nodes)-next)
	}
	return t, nil
}
