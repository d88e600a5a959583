// Package physics moves axis-aligned boxes through a world of solid boxes
// without letting them interpenetrate.
package physics

import (
	"github.com/pkg/errors"

	"voxelworld/internal/spatial"
)

// NoAxis is reported when a movement is not blocked.
const NoAxis = -1

// contactEpsilon is the overlap below which two boxes count as touching
// rather than overlapping on an axis that is not being tested.
const contactEpsilon = 1e-9

// ErrUnresolvableCollision is returned when a movement keeps colliding after
// every axis has been blocked once.
var ErrUnresolvableCollision = errors.New("unresolvable collision")

// WorldContext supplies the solid boxes a movement has to respect.
type WorldContext interface {
	// SolidBoxes returns the boxes of every solid block touching area.
	SolidBoxes(area spatial.BoundingBox) []spatial.BoundingBox
}

// Contact is one blocked axis of a resolved movement.
type Contact struct {
	Axis  int
	T     float64 // share of the remaining displacement travelled before contact
	Block spatial.BoundingBox
}

type Result struct {
	Box      spatial.BoundingBox
	Moved    spatial.Vector
	Contacts []Contact
	Passes   int
}

// Blocked reports whether the movement was stopped along axis.
func (r Result) Blocked(axis int) bool {
	for _, c := range r.Contacts {
		if c.Axis == axis {
			return true
		}
	}
	return false
}

// SolveOne sweeps start by accel against a single block. It returns the
// fraction of accel that can be travelled before the first contact and the
// axis of that contact, or 1 and NoAxis when the block is not hit. Ties go to
// the lowest axis.
//
// The contact plane on each moving axis is the facing block side pushed out by
// half the moving box. A candidate only counts when the moved box still
// overlaps the block on every other axis. A box already past the contact plane
// is stopped in place when it is heading into the block and ignored when it is
// leaving it.
func SolveOne(block, start spatial.BoundingBox, accel spatial.Vector) (float64, int) {
	dim := start.Dimension()
	center := start.Center()
	half := start.Extent().Mul(0.5)
	blockCenter := block.Center()

	bestT, bestAxis := 1.0, NoAxis
	for axis := 0; axis < dim; axis++ {
		a := accel[axis]
		if a == 0 {
			continue
		}

		var contact float64
		if a > 0 {
			contact = block.Min[axis] - half[axis]
		} else {
			contact = block.Max[axis] + half[axis]
		}
		t := (contact - center[axis]) / a
		if t <= 0 {
			heading := (a > 0 && center[axis] < blockCenter[axis]) ||
				(a < 0 && center[axis] > blockCenter[axis])
			if !heading {
				continue
			}
			t = 0
		}
		if t >= bestT {
			continue
		}

		if overlapsOthers(block, center.Add(accel.Mul(t)), half, axis, dim) {
			bestT, bestAxis = t, axis
		}
	}
	return bestT, bestAxis
}

// overlapsOthers is the Minkowski test: the moved box overlaps the block on
// every axis but skip by more than contactEpsilon.
func overlapsOthers(block spatial.BoundingBox, center spatial.Point, half spatial.Vector, skip, dim int) bool {
	for o := 0; o < dim; o++ {
		if o == skip {
			continue
		}
		if center[o]-half[o] >= block.Max[o]-contactEpsilon || center[o]+half[o] <= block.Min[o]+contactEpsilon {
			return false
		}
	}
	return true
}

// Resolve moves start by accel through ctx. Each pass finds the earliest
// contact among the solid boxes in the swept area, advances to it, drops the
// blocked axis and carries on with what is left of the displacement. At most
// one pass per axis can end in a contact.
func Resolve(ctx WorldContext, start spatial.BoundingBox, accel spatial.Vector) (Result, error) {
	dim := start.Dimension()
	var remaining spatial.Vector
	for i := 0; i < dim; i++ {
		remaining[i] = accel[i]
	}

	res := Result{Box: start}
	var blocked [3]bool
	for remaining != (spatial.Vector{}) {
		if res.Passes >= dim {
			instrumentUnresolvable()
			return res, errors.Wrapf(ErrUnresolvableCollision, "still moving after %d passes", res.Passes)
		}
		res.Passes++

		swept := res.Box.Union(res.Box.Translate(remaining))
		t, axis := 1.0, NoAxis
		var hit spatial.BoundingBox
		for _, block := range ctx.SolidBoxes(swept) {
			bt, ba := SolveOne(block, res.Box, remaining)
			if ba == NoAxis {
				continue
			}
			if axis == NoAxis || bt < t || (bt == t && ba < axis) {
				t, axis, hit = bt, ba, block
			}
		}

		if axis == NoAxis {
			res.Box = res.Box.Translate(remaining)
			break
		}
		if blocked[axis] {
			instrumentUnresolvable()
			return res, errors.Wrapf(ErrUnresolvableCollision, "axis %d collided twice", axis)
		}
		blocked[axis] = true

		res.Box = res.Box.Translate(remaining.Mul(t))
		if t > 0 {
			res.Box = snapToContact(res.Box, hit, axis, remaining[axis])
		}
		res.Contacts = append(res.Contacts, Contact{Axis: axis, T: t, Block: hit})
		remaining = remaining.Mul(1 - t)
		remaining[axis] = 0
	}

	res.Moved = res.Box.Min.Sub(start.Min)
	instrumentPasses(res.Passes)
	return res, nil
}

// snapToContact places box flush against the side of block it ran into along
// axis, removing rounding drift from the advance.
func snapToContact(box, block spatial.BoundingBox, axis int, direction float64) spatial.BoundingBox {
	extent := box.Max[axis] - box.Min[axis]
	if direction > 0 {
		box.Max[axis] = block.Min[axis]
		box.Min[axis] = block.Min[axis] - extent
	} else {
		box.Min[axis] = block.Max[axis]
		box.Max[axis] = block.Max[axis] + extent
	}
	return box
}
