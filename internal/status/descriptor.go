// Package status provides the presentation descriptor attached to every lifecycle state.
package status

import "fmt"

// ColorClass is the closed set of color classifications a renderer can map to a palette.
type ColorClass int

const (
	Neutral ColorClass = iota
	Alert
	Pending
	Success
)

// String returns the string representation of the color class.
func (c ColorClass) String() string {
	switch c {
	case Neutral:
		return "neutral"
	case Alert:
		return "alert"
	case Pending:
		return "pending"
	case Success:
		return "success"
	default:
		return "unknown"
	}
}

// Descriptor is an immutable label, color class and animation cadence triple.
// The zero value is not meaningful; use New or Placeholder.
type Descriptor struct {
	label     string
	color     ColorClass
	cadenceMs uint32
}

// Placeholder is held by a container before its first transition.
var Placeholder = New("..", Neutral, 0)

// New creates a descriptor.
func New(label string, color ColorClass, cadenceMs uint32) Descriptor {
	return Descriptor{label: label, color: color, cadenceMs: cadenceMs}
}

// Label returns the text shown to the user.
func (d Descriptor) Label() string {
	return d.label
}

// Color returns the color classification.
func (d Descriptor) Color() ColorClass {
	return d.color
}

// CadenceMs returns the animation speed hint in milliseconds.
func (d Descriptor) CadenceMs() uint32 {
	return d.cadenceMs
}

// String returns the string representation of the descriptor.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s, %dms)", d.label, d.color, d.cadenceMs)
}
