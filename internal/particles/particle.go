package particles

// Shape is the fixed drawing form of a particle.
type Shape uint8

const (
	ShapeCircle Shape = iota
	ShapeSquare
	ShapeDiamond

	shapeCount
)

func (s Shape) String() string {
	switch s {
	case ShapeCircle:
		return "circle"
	case ShapeSquare:
		return "square"
	case ShapeDiamond:
		return "diamond"
	}
	return "unknown"
}

// Particle is one grain of sand. Shape, Clusters, BaseSize and Phase are
// fixed at creation; the rest is rewritten every step.
type Particle struct {
	X, Y   float64 // World position in surface pixels
	VX, VY float64

	BaseSize float64 // Uniform in [MinBaseSize, MaxBaseSize]
	Size     float64 // Derived each step, >= 0

	Opacity       float64 // Smoothed, in [0, 1]
	TargetOpacity float64 // In [0, 1]

	Shape    Shape
	Clusters bool    // Emits satellite dots when bright
	Phase    float64 // Rotation offset for squares
}
