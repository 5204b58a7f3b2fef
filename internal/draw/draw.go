// Package draw defines the shape commands a tick hands to the rendering sink.
package draw

// Kind identifies the shape of a command.
type Kind uint8

const (
	KindClear Kind = iota
	KindCircle
	KindSquare
	KindDiamond
	KindGlow
)

func (k Kind) String() string {
	switch k {
	case KindClear:
		return "clear"
	case KindCircle:
		return "circle"
	case KindSquare:
		return "square"
	case KindDiamond:
		return "diamond"
	case KindGlow:
		return "glow"
	}
	return "unknown"
}

// Command is one shape to draw. Size is the radius for circles and glows
// and the half-size for squares and diamonds. Rotation only applies to
// squares. Alpha is in [0, 1].
type Command struct {
	Kind     Kind
	X, Y     float64
	Size     float64
	Rotation float64
	Alpha    float64
}

// List is a reusable command buffer. Commands returned by a List are valid
// until the next Reset.
type List struct {
	cmds []Command
}

// NewList creates a list with room for n commands.
func NewList(n int) *List {
	return &List{cmds: make([]Command, 0, n)}
}

// Reset empties the list, keeping its capacity.
func (l *List) Reset() { l.cmds = l.cmds[:0] }

// Clear appends a full-surface clear.
func (l *List) Clear() { l.cmds = append(l.cmds, Command{Kind: KindClear}) }

// Circle appends a filled circle.
func (l *List) Circle(x, y, radius, alpha float64) {
	l.cmds = append(l.cmds, Command{Kind: KindCircle, X: x, Y: y, Size: radius, Alpha: alpha})
}

// Square appends a rotated square.
func (l *List) Square(x, y, halfSize, rotation, alpha float64) {
	l.cmds = append(l.cmds, Command{Kind: KindSquare, X: x, Y: y, Size: halfSize, Rotation: rotation, Alpha: alpha})
}

// Diamond appends an axis-aligned diamond.
func (l *List) Diamond(x, y, halfSize, alpha float64) {
	l.cmds = append(l.cmds, Command{Kind: KindDiamond, X: x, Y: y, Size: halfSize, Alpha: alpha})
}

// Glow appends a soft radial glow.
func (l *List) Glow(x, y, radius, alpha float64) {
	l.cmds = append(l.cmds, Command{Kind: KindGlow, X: x, Y: y, Size: radius, Alpha: alpha})
}

// Commands returns the buffered commands.
func (l *List) Commands() []Command { return l.cmds }

// Len returns the number of buffered commands.
func (l *List) Len() int { return len(l.cmds) }
