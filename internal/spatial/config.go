package spatial

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when a tree cannot be built from its config.
	ErrInvalidConfig = errors.New("invalid spatial tree config")

	// ErrAlreadySplit is returned when splitting a node that already has
	// children. Check IsLeaf before splitting to avoid it.
	ErrAlreadySplit = errors.New("node is already split")

	// ErrMaxDepth is returned when splitting a node that sits at the deepest
	// level the tree allows.
	ErrMaxDepth = errors.New("node is at the maximum tree depth")
)

// Config is the immutable shape of a tree.
type Config struct {
	Dimension int     `yaml:"dimension" json:"dimension"`
	Size      float64 `yaml:"size" json:"size"`
	MaxDepth  uint32  `yaml:"maxDepth" json:"maxDepth"`
}

func (c Config) Validate() error {
	if c.Dimension != 2 && c.Dimension != 3 {
		return errors.Wrapf(ErrInvalidConfig, "dimension %d must be 2 or 3", c.Dimension)
	}
	if c.Size <= 0 || math.IsInf(c.Size, 0) || math.IsNaN(c.Size) {
		return errors.Wrapf(ErrInvalidConfig, "size %v must be positive and finite", c.Size)
	}
	if c.MinSize() <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max depth %d leaves no room for a positive min size", c.MaxDepth)
	}
	return nil
}

// NumChildren is the fan-out of every branch: 4 for quadtrees, 8 for octrees.
func (c Config) NumChildren() int {
	return 1 << c.Dimension
}

// MinSize is the edge length of a node at MaxDepth.
func (c Config) MinSize() float64 {
	if c.MaxDepth > math.MaxInt32 {
		return 0
	}
	return math.Ldexp(c.Size, -int(c.MaxDepth))
}

// DimensionBits returns the child index bit owned by each axis.
func (c Config) DimensionBits() []uint8 {
	bits := make([]uint8, c.Dimension)
	for i := range bits {
		bits[i] = 1 << i
	}
	return bits
}

// SizeAt is the edge length of any node at the given depth.
func (c Config) SizeAt(depth int) float64 {
	return math.Ldexp(c.Size, -depth)
}
