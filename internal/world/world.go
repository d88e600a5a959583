// Package world stores a voxel world in an octree. Uniform regions stay as
// single coarse nodes; nodes are only split down to voxel size along the paths
// that need it. Tree axis 1 is up.
package world

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"voxelworld/internal/config"
	"voxelworld/internal/spatial"
)

var (
	ErrOutsideWorld     = errors.New("position outside the world")
	ErrSnapshotNotFound = errors.New("world snapshot not found")
)

// Block is one stored leaf: a uniform cube of a single block id.
type Block struct {
	ID     BlockID
	Origin spatial.Point
	Size   float64
}

func (b Block) BoundingBox() spatial.BoundingBox {
	return spatial.BoxAround(3, b.Origin, spatial.Vector{b.Size, b.Size, b.Size})
}

// Collision is a solid block overlapping a queried box.
type Collision struct {
	Block   Block
	Box     spatial.BoundingBox // solid part of the block
	Overlap spatial.BoundingBox
}

// HeightFunc returns the surface height of the column at (x, z), or false
// when the column has no surface.
type HeightFunc func(x, z float64) (float64, bool)

// World is safe for concurrent use.
type World struct {
	mu       sync.RWMutex
	tree     *spatial.Tree[BlockID]
	registry Registry
	logger   *zap.Logger
}

type Option func(*World)

func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New returns a world filled with air.
func New(cfg config.WorldConfig, registry Registry, opts ...Option) (*World, error) {
	tree, err := spatial.New[BlockID](spatial.Config{
		Dimension: 3,
		Size:      cfg.Size,
		MaxDepth:  cfg.MaxDepth,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create world tree")
	}
	tree.Root().SetValue(Air)
	return newWorld(tree, registry, opts), nil
}

func newWorld(tree *spatial.Tree[BlockID], registry Registry, opts []Option) *World {
	w := &World{
		tree:     tree,
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Config() spatial.Config {
	return w.tree.Config()
}

// VoxelSize is the edge length of the smallest node.
func (w *World) VoxelSize() float64 {
	return w.tree.Config().MinSize()
}

func (w *World) Stats() spatial.Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tree.Stats()
}

// GetBlock returns the block of the voxel containing p.
func (w *World) GetBlock(p spatial.Point) (BlockID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	center, ok := w.voxelCenter(p)
	if !ok {
		return Air, false
	}
	n, _ := w.tree.NodeFromPoint(center)
	id, _ := n.Value()
	return id, true
}

// SetBlock stores id in the voxel containing p, splitting coarse nodes on the
// way down. New children inherit the block of the node they were split from.
func (w *World) SetBlock(p spatial.Point, id BlockID) error {
	if err := w.checkBlock(id); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setBlock(p, id)
}

func (w *World) setBlock(p spatial.Point, id BlockID) error {
	center, ok := w.voxelCenter(p)
	if !ok {
		return errors.Wrapf(ErrOutsideWorld, "set block at %v", p)
	}
	maxDepth := int(w.tree.Config().MaxDepth)
	for {
		n, _ := w.tree.NodeFromPoint(center)
		if n.Depth() == maxDepth {
			n.SetValue(id)
			return nil
		}
		current, _ := n.Value()
		if current == id {
			return nil
		}
		if err := subdivide(n, current); err != nil {
			return err
		}
	}
}

// SetRegion stores id in every voxel whose centre lies in area. Nodes fully
// inside area are painted whole, without splitting.
func (w *World) SetRegion(area spatial.BoundingBox, id BlockID) error {
	if err := w.checkBlock(id); err != nil {
		return err
	}
	if area.IsEmpty() {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fill(w.tree.Root(), area, id)
}

func (w *World) fill(n *spatial.Node[BlockID], area spatial.BoundingBox, id BlockID) error {
	box := n.BoundingBox()
	if !box.Collides(area) {
		return nil
	}
	atVoxel := n.Depth() == int(w.tree.Config().MaxDepth)
	if covers(area, box) || atVoxel && area.Contains(n.Origin()) {
		paint(n, id)
		return nil
	}
	if atVoxel {
		return nil
	}
	if n.IsLeaf() {
		current, _ := n.Value()
		if current == id {
			return nil
		}
		if err := subdivide(n, current); err != nil {
			return err
		}
	}

	var err error
	n.ForEachChild(func(child *spatial.Node[BlockID], _ spatial.Point, _ float64) bool {
		err = w.fill(child, area, id)
		return err == nil
	})
	return err
}

// GetBlocks returns every leaf overlapping area whose block is not exclude.
// Touching faces only count on the inclusive axes.
func (w *World) GetBlocks(area spatial.BoundingBox, exclude BlockID, inclusive ...int) []Block {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.blocks(area, exclude, inclusive)
}

func (w *World) blocks(area spatial.BoundingBox, exclude BlockID, inclusive []int) []Block {
	var out []Block
	w.tree.Walk(func(n *spatial.Node[BlockID]) bool {
		if !n.BoundingBox().Collides(area, inclusive...) {
			return false
		}
		if !n.IsLeaf() {
			return true
		}
		if id, _ := n.Value(); id != exclude {
			out = append(out, Block{ID: id, Origin: n.Origin(), Size: n.Size()})
		}
		return false
	})
	return out
}

// GetCollisions returns the solid blocks whose solid part overlaps box.
func (w *World) GetCollisions(box spatial.BoundingBox) []Collision {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []Collision
	for _, b := range w.blocks(box, Air, nil) {
		desc, ok := w.solid(b.ID)
		if !ok {
			continue
		}
		solid := desc.BoundingBox(b.Origin, b.Size)
		if !solid.Collides(box) {
			continue
		}
		overlap, _ := solid.Intersection(box)
		out = append(out, Collision{Block: b, Box: solid, Overlap: overlap})
	}
	return out
}

// SolidBoxes returns the solid part of every block touching area. World
// implements physics.WorldContext through it.
func (w *World) SolidBoxes(area spatial.BoundingBox) []spatial.BoundingBox {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.solidBoxes(area)
}

func (w *World) solidBoxes(area spatial.BoundingBox) []spatial.BoundingBox {
	var out []spatial.BoundingBox
	for _, b := range w.blocks(area, Air, []int{0, 1, 2}) {
		desc, ok := w.solid(b.ID)
		if !ok {
			continue
		}
		if solid := desc.BoundingBox(b.Origin, b.Size); solid.Collides(area, 0, 1, 2) {
			out = append(out, solid)
		}
	}
	return out
}

// IsGrounded reports whether box rests on a solid block: something solid
// touches its floor from below within its horizontal footprint.
func (w *World) IsGrounded(box spatial.BoundingBox) bool {
	probeDepth := w.tree.Config().MinSize() / 1024
	probe := spatial.NewBoundingBox(3,
		spatial.Point3(box.Min[0], box.Min[1]-probeDepth, box.Min[2]),
		spatial.Point3(box.Max[0], box.Min[1], box.Max[2]),
	)

	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, solid := range w.solidBoxes(probe) {
		if solid.Collides(probe, 1) {
			return true
		}
	}
	return false
}

// Populate fills every column below the height returned by heights with fill
// and caps it with one voxel of surface. Layers below the lowest surface are
// filled in one pass so they stay coarse.
func (w *World) Populate(heights HeightFunc, surface, fill BlockID) error {
	if err := w.checkBlock(surface); err != nil {
		return err
	}
	if err := w.checkBlock(fill); err != nil {
		return err
	}

	cfg := w.tree.Config()
	size := cfg.MinSize()
	half := cfg.Size / 2
	count := int(math.Ldexp(1, int(cfg.MaxDepth)))

	type column struct {
		x, z float64
		top  int
	}
	var columns []column
	lowest := count
	for ix := 0; ix < count; ix++ {
		for iz := 0; iz < count; iz++ {
			x := -half + (float64(ix)+0.5)*size
			z := -half + (float64(iz)+0.5)*size
			h, ok := heights(x, z)
			if !ok {
				continue
			}
			top := int(math.Floor((h + half) / size))
			if top < 0 {
				continue
			}
			if top >= count {
				top = count - 1
			}
			columns = append(columns, column{x: x, z: z, top: top})
			lowest = min(lowest, top)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	start := 0
	if len(columns) == count*count && lowest > 0 {
		bulk := spatial.NewBoundingBox(3,
			spatial.Point3(-half, -half, -half),
			spatial.Point3(half, -half+float64(lowest)*size, half),
		)
		if err := w.fill(w.tree.Root(), bulk, fill); err != nil {
			return errors.Wrap(err, "fill bedrock layers")
		}
		start = lowest
	}

	for _, c := range columns {
		if c.top > start {
			area := spatial.NewBoundingBox(3,
				spatial.Point3(c.x-size/2, -half+float64(start)*size, c.z-size/2),
				spatial.Point3(c.x+size/2, -half+float64(c.top)*size, c.z+size/2),
			)
			if err := w.fill(w.tree.Root(), area, fill); err != nil {
				return errors.Wrapf(err, "fill column (%v, %v)", c.x, c.z)
			}
		}
		if err := w.setBlock(spatial.Point3(c.x, -half+(float64(c.top)+0.5)*size, c.z), surface); err != nil {
			return errors.Wrapf(err, "cap column (%v, %v)", c.x, c.z)
		}
	}

	w.logger.Info("world populated",
		zap.Int("columns", len(columns)),
		zap.Int("lowestLayer", lowest),
		zap.Int("nodes", w.tree.Stats().Nodes),
	)
	return nil
}

// Save writes a snapshot of the world under key.
func (w *World) Save(storage Storage, key uint32) error {
	w.mu.RLock()
	snapshot := w.tree.Snapshot()
	w.mu.RUnlock()

	if err := storage.Save(key, snapshot); err != nil {
		w.logger.Warn("world save failed", zap.Uint32("key", key), zap.Error(err))
		return errors.Wrapf(err, "save world %d", key)
	}
	w.logger.Debug("world saved", zap.Uint32("key", key), zap.Int("nodes", len(snapshot.Nodes)))
	return nil
}

// Load restores the world saved under key.
func Load(storage Storage, key uint32, registry Registry, opts ...Option) (*World, error) {
	snapshot, ok, err := storage.Load(key)
	if err != nil {
		return nil, errors.Wrapf(err, "load world %d", key)
	}
	if !ok {
		return nil, errors.Wrapf(ErrSnapshotNotFound, "world %d", key)
	}
	if snapshot.Config.Dimension != 3 {
		return nil, errors.Wrapf(spatial.ErrCorruptSnapshot, "world %d is %d-dimensional", key, snapshot.Config.Dimension)
	}
	tree, err := spatial.FromSnapshot(snapshot)
	if err != nil {
		return nil, errors.Wrapf(err, "restore world %d", key)
	}
	return newWorld(tree, registry, opts), nil
}

func (w *World) checkBlock(id BlockID) error {
	if _, ok := w.registry.Lookup(id); !ok {
		return errors.Wrapf(ErrUnknownBlock, "block %d", id)
	}
	return nil
}

func (w *World) solid(id BlockID) (Descriptor, bool) {
	desc, ok := w.registry.Lookup(id)
	if !ok {
		w.logger.Warn("stored block missing from registry", zap.Uint32("block", uint32(id)))
		return nil, false
	}
	return desc, desc.IsSolid()
}

// voxelCenter returns the centre of the voxel containing p. Points on the
// upper world faces belong to the last voxel.
func (w *World) voxelCenter(p spatial.Point) (spatial.Point, bool) {
	if !w.tree.InBounds(p) {
		return p, false
	}
	cfg := w.tree.Config()
	size := cfg.MinSize()
	half := cfg.Size / 2
	last := math.Ldexp(1, int(cfg.MaxDepth)) - 1

	var center spatial.Point
	for i := 0; i < 3; i++ {
		index := math.Min(math.Floor((p[i]+half)/size), last)
		center[i] = -half + (index+0.5)*size
	}
	return center, true
}

func subdivide(n *spatial.Node[BlockID], id BlockID) error {
	if err := n.Split(); err != nil {
		return err
	}
	n.ForEachChild(func(child *spatial.Node[BlockID], _ spatial.Point, _ float64) bool {
		child.SetValue(id)
		return true
	})
	return nil
}

func paint(n *spatial.Node[BlockID], id BlockID) {
	n.SetValue(id)
	n.ForEachChild(func(child *spatial.Node[BlockID], _ spatial.Point, _ float64) bool {
		paint(child, id)
		return true
	})
}

// covers reports whether box lies entirely inside area.
func covers(area, box spatial.BoundingBox) bool {
	for i := 0; i < 3; i++ {
		if box.Min[i] < area.Min[i] || box.Max[i] > area.Max[i] {
			return false
		}
	}
	return true
}
