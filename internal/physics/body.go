package physics

import (
	"voxelworld/internal/spatial"
)

// UpAxis is the vertical axis gravity pulls along.
const UpAxis = 1

type Params struct {
	Gravity      float64 // velocity lost per step along UpAxis
	MaxFallSpeed float64 // zero means unbounded
}

// Body is a box with a velocity, advanced one step at a time.
type Body struct {
	Box      spatial.BoundingBox
	Velocity spatial.Vector
	Grounded bool
}

// Step applies gravity, moves the body by its velocity and stops the velocity
// on every blocked axis. The body is grounded when the step ended on a floor.
func (b *Body) Step(ctx WorldContext, params Params) (Result, error) {
	b.Velocity[UpAxis] -= params.Gravity
	if params.MaxFallSpeed > 0 && b.Velocity[UpAxis] < -params.MaxFallSpeed {
		b.Velocity[UpAxis] = -params.MaxFallSpeed
	}

	falling := b.Velocity[UpAxis] < 0
	res, err := Resolve(ctx, b.Box, b.Velocity)
	if err != nil {
		return res, err
	}

	b.Box = res.Box
	b.Grounded = falling && res.Blocked(UpAxis)
	for _, c := range res.Contacts {
		b.Velocity[c.Axis] = 0
	}
	return res, nil
}
