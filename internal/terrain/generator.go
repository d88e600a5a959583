// Package terrain refines a height quadtree around points of interest with a
// diamond-square-like scheme: every child starts from a weighted average of
// its parent and the parent-level nodes around its outer corner, plus a
// random deviation that shrinks with depth.
package terrain

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"voxelworld/internal/config"
	"voxelworld/internal/spatial"
)

const (
	parentWeight = 2
	// deviationFalloff bends the halving of the deviation per level.
	deviationFalloff = 0.92
)

// Generator owns a height quadtree. The x axis of the map is tree axis 0 and
// the z axis is tree axis 1.
//
// Heights are a pure function of the seed, the config and the position of a
// node: before a node is split, the same-depth nodes its children average
// over are created first. Trees refined in different orders or to different
// extents therefore agree on every node they share.
//
// A Generator is not safe for concurrent use.
type Generator struct {
	cfg    config.TerrainConfig
	tree   *spatial.Tree[float64]
	logger *zap.Logger

	pcg *rand.PCG
	rng *rand.Rand
}

type Option func(*Generator)

func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewGenerator(cfg config.TerrainConfig, opts ...Option) (*Generator, error) {
	tree, err := spatial.New[float64](spatial.Config{
		Dimension: 2,
		Size:      cfg.Size,
		MaxDepth:  cfg.MaxDepth,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create terrain tree")
	}
	tree.Root().SetValue(cfg.BaseHeight)

	pcg := rand.NewPCG(0, 0)
	g := &Generator{
		cfg:    cfg,
		tree:   tree,
		logger: zap.NewNop(),
		pcg:    pcg,
		rng:    rand.New(pcg),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Generator) Tree() *spatial.Tree[float64] {
	return g.tree
}

func (g *Generator) Config() config.TerrainConfig {
	return g.cfg
}

// Generate refines the map around p down to the maximum depth. p is a map
// position: its first component is x and its second is z.
func (g *Generator) Generate(p spatial.Point) error {
	return g.GenerateDepth(p, int(g.cfg.MaxDepth))
}

// GenerateDepth refines the map around p down to maxDepth. A node is refined
// when its distance to p is at most its size times its depth plus one, so
// detail falls off with distance.
func (g *Generator) GenerateDepth(p spatial.Point, maxDepth int) error {
	focus := spatial.Point2(p[0], p[1])
	return g.generate("point", maxDepth, func(n *spatial.Node[float64]) bool {
		return spatial.Distance(2, focus, n.Origin()) <= n.Size()*float64(n.Depth()+1)
	})
}

// GenerateArea refines every node overlapping area down to the maximum depth.
func (g *Generator) GenerateArea(area spatial.BoundingBox) error {
	if area.IsEmpty() {
		return nil
	}
	return g.generate("area", int(g.cfg.MaxDepth), func(n *spatial.Node[float64]) bool {
		return n.BoundingBox().Collides(area, 0, 1)
	})
}

// GenerateAll refines the whole map down to the maximum depth.
func (g *Generator) GenerateAll() error {
	return g.generate("all", int(g.cfg.MaxDepth), func(*spatial.Node[float64]) bool {
		return true
	})
}

// Height returns the height of the finest node covering (x, z), or false when
// the point lies outside the map.
func (g *Generator) Height(x, z float64) (float64, bool) {
	n, ok := g.tree.NodeFromPoint(spatial.Point2(x, z))
	if !ok {
		return 0, false
	}
	return n.Value()
}

// generate walks the tree level by level, refining every frontier node admit
// accepts and queueing its children for the next level.
func (g *Generator) generate(mode string, maxDepth int, admit func(*spatial.Node[float64]) bool) error {
	if maxDepth > int(g.cfg.MaxDepth) {
		maxDepth = int(g.cfg.MaxDepth)
	}
	start := time.Now()
	created := 0
	g.logger.Debug("terrain generation progress", zap.String("mode", mode), zap.Int("percent", 0))

	frontier := []*spatial.Node[float64]{g.tree.Root()}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []*spatial.Node[float64]
		for _, n := range frontier {
			if !admit(n) {
				continue
			}
			count, err := g.refine(n)
			created += count
			if err != nil {
				return errors.Wrapf(err, "refine terrain at depth %d", depth)
			}
			n.ForEachChild(func(child *spatial.Node[float64], _ spatial.Point, _ float64) bool {
				next = append(next, child)
				return true
			})
		}
		frontier = next
		g.logger.Debug("terrain generation progress",
			zap.String("mode", mode),
			zap.Int("depth", depth+1),
			zap.Int("frontier", len(frontier)),
			zap.Int("percent", (depth+1)*100/maxDepth),
		)
	}

	instrumentGeneration(mode, start, created)
	g.logger.Info("terrain generated",
		zap.String("mode", mode),
		zap.Int("nodes", created),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// refine splits the leaf n and gives its children their heights. It returns
// the number of nodes created, including the ones created to materialise
// neighbours. Branches and nodes at the maximum depth are left alone.
func (g *Generator) refine(n *spatial.Node[float64]) (int, error) {
	if !n.IsLeaf() || n.Depth() >= int(g.cfg.MaxDepth) {
		return 0, nil
	}

	created := 0
	// around[dz+1][dx+1] is the same-depth node at offset (dx, dz), or nil
	// past the map edge.
	var around [3][3]*spatial.Node[float64]
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dz == 0 {
				continue
			}
			nb, count, err := g.sameDepth(n, dx, dz)
			created += count
			if err != nil {
				return created, err
			}
			around[dz+1][dx+1] = nb
		}
	}

	if err := n.Split(); err != nil {
		return created, err
	}
	parent, _ := n.Value()
	spread := g.maxDeviation(n.Depth() + 1)

	n.ForEachChild(func(child *spatial.Node[float64], origin spatial.Point, _ float64) bool {
		sx, sz := -1, -1
		if child.Index()&1 != 0 {
			sx = 1
		}
		if child.Index()&2 != 0 {
			sz = 1
		}

		sum, weight := parentWeight*parent, float64(parentWeight)
		corner := [3]*spatial.Node[float64]{
			around[1][sx+1],
			around[sz+1][1],
			around[sz+1][sx+1],
		}
		for _, nb := range corner {
			if nb == nil {
				continue
			}
			v, _ := nb.Value()
			sum += v
			weight++
		}

		child.SetValue(sum/weight + g.deviation(origin, spread))
		created++
		return true
	})
	return created, nil
}

// sameDepth returns the node at the same depth as n, offset by whole node
// sizes along x and z, refining coarser leaves on the way until it exists.
// Every refinement it triggers is shallower than n, so the recursion ends.
func (g *Generator) sameDepth(n *spatial.Node[float64], dx, dz int) (*spatial.Node[float64], int, error) {
	origin := n.Origin()
	target := spatial.Point2(origin[0]+float64(dx)*n.Size(), origin[1]+float64(dz)*n.Size())

	created := 0
	for {
		m, ok := g.tree.NodeFromPointDepth(target, n.Depth())
		if !ok {
			return nil, created, nil
		}
		if m.Depth() == n.Depth() {
			return m, created, nil
		}
		count, err := g.refine(m)
		created += count
		if err != nil {
			return nil, created, err
		}
	}
}

// maxDeviation bounds the random offset of nodes at depth.
func (g *Generator) maxDeviation(depth int) float64 {
	return g.cfg.MaxHeight / math.Pow(2, math.Pow(float64(depth), deviationFalloff))
}

// deviation draws a value in [-spread, spread) from a stream seeded by the
// node position.
func (g *Generator) deviation(origin spatial.Point, spread float64) float64 {
	if spread == 0 {
		return 0
	}
	g.pcg.Seed(nodeSeed(g.cfg.Seed, origin[0], origin[1]))
	return (g.rng.Float64()*2 - 1) * spread
}
