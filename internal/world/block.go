package world

import (
	"github.com/pkg/errors"

	"voxelworld/internal/config"
	"voxelworld/internal/spatial"
)

// BlockID is the value stored on every voxel node.
type BlockID uint32

// Air is the empty block. It is never solid and never listed in a table.
const Air BlockID = 0

var ErrUnknownBlock = errors.New("unknown block")

// Descriptor tells the world how a stored block behaves.
type Descriptor interface {
	IsSolid() bool
	// BoundingBox returns the solid part of a block occupying the node
	// centred on origin with the given edge length.
	BoundingBox(origin spatial.Point, size float64) spatial.BoundingBox
}

// Registry resolves stored block ids.
type Registry interface {
	Lookup(id BlockID) (Descriptor, bool)
}

// BlockType is a block kind loaded from configuration.
type BlockType struct {
	Name   string
	Color  string
	Solid  bool
	Height float64 // fraction of the node filled from its floor
}

func (b BlockType) IsSolid() bool {
	return b.Solid
}

func (b BlockType) BoundingBox(origin spatial.Point, size float64) spatial.BoundingBox {
	half := size / 2
	min := origin.Sub(spatial.Vector{half, half, half})
	max := origin.Add(spatial.Vector{half, half, half})
	max[1] = min[1] + size*b.Height
	return spatial.NewBoundingBox(3, min, max)
}

var airType = BlockType{Name: "air", Color: "#000000"}

// BlockTable is a Registry built from block definitions. Definition i gets id
// i+1.
type BlockTable struct {
	types  []BlockType
	byName map[string]BlockID
}

func NewBlockTable(defs []config.BlockDefinition) (*BlockTable, error) {
	table := &BlockTable{
		types:  make([]BlockType, 0, len(defs)),
		byName: make(map[string]BlockID, len(defs)),
	}
	for i, def := range defs {
		if def.ID == "" {
			return nil, errors.Errorf("block definition %d has no id", i)
		}
		if _, ok := table.byName[def.ID]; ok {
			return nil, errors.Errorf("block %q defined twice", def.ID)
		}
		height := def.Height
		if height <= 0 || height > 1 {
			height = 1
		}
		table.types = append(table.types, BlockType{
			Name:   def.ID,
			Color:  def.Color,
			Solid:  def.Solid,
			Height: height,
		})
		table.byName[def.ID] = BlockID(i + 1)
	}
	return table, nil
}

func (t *BlockTable) Lookup(id BlockID) (Descriptor, bool) {
	block, ok := t.Type(id)
	if !ok {
		return nil, false
	}
	return block, true
}

func (t *BlockTable) Type(id BlockID) (BlockType, bool) {
	if id == Air {
		return airType, true
	}
	if int(id) > len(t.types) {
		return BlockType{}, false
	}
	return t.types[id-1], true
}

// ID returns the id of the named block.
func (t *BlockTable) ID(name string) (BlockID, error) {
	if name == airType.Name {
		return Air, nil
	}
	id, ok := t.byName[name]
	if !ok {
		return Air, errors.Wrapf(ErrUnknownBlock, "block %q", name)
	}
	return id, nil
}

func (t *BlockTable) Len() int {
	return len(t.types)
}
