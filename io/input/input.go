// SPDX-License-Identifier: Unlicense OR MIT

// Package input defines the platform-to-compositor input event set.
// The platform shell translates native input into these events and
// queues them for the core's tick loop; coordinates are in compositor
// space, button codes follow evdev.
package input

// Event is the marker interface for platform-to-compositor events.
type Event interface {
	ImplementsInputEvent()
}

// State reports whether a button or key went down or up.
type State uint8

const (
	Released State = iota
	Pressed
)

// Evdev button codes used by pointer events.
const (
	BtnLeft   = 0x110
	BtnRight  = 0x111
	BtnMiddle = 0x112
)

// PointerMotion is absolute pointer motion in compositor coordinates.
type PointerMotion struct {
	X, Y float64
	Time uint32
}

// PointerMotionRelative is an unaccelerated delta, used while a pointer
// lock constraint suppresses absolute delivery.
type PointerMotionRelative struct {
	DX, DY float64
	Time   uint32
}

type PointerButton struct {
	Button uint32
	State  State
	Time   uint32
}

type PointerAxis struct {
	Horizontal float64
	Vertical   float64
	Time       uint32
}

type KeyboardKey struct {
	Code  uint32
	State State
	Time  uint32
}

type KeyboardModifiers struct {
	Depressed uint32
	Latched   uint32
	Locked    uint32
	Group     uint32
}

type TouchDown struct {
	ID   int32
	X, Y float64
	Time uint32
}

type TouchUp struct {
	ID   int32
	Time uint32
}

type TouchMotion struct {
	ID   int32
	X, Y float64
	Time uint32
}

type TouchFrame struct{}

type TouchCancel struct{}

// OutputConfigured carries a platform display reconfiguration.
type OutputConfigured struct {
	Width      uint32
	Height     uint32
	RefreshMHz uint32
	Scale      float64
	X, Y       int32
	// Insets are the platform safe-area insets: top, right, bottom,
	// left.
	Insets [4]int32
}

// FramePresented reports that the platform displayed a frame; buffer
// releases queued behind it are flushed on receipt.
type FramePresented struct {
	Surface     uint32 // 0 when the whole scene presented
	Buffer      uint64
	TimestampNS uint64
	RefreshNS   uint64
	Sequence    uint64
}

func (PointerMotion) ImplementsInputEvent()         {}
func (PointerMotionRelative) ImplementsInputEvent() {}
func (PointerButton) ImplementsInputEvent()         {}
func (PointerAxis) ImplementsInputEvent()           {}
func (KeyboardKey) ImplementsInputEvent()           {}
func (KeyboardModifiers) ImplementsInputEvent()     {}
func (TouchDown) ImplementsInputEvent()             {}
func (TouchUp) ImplementsInputEvent()               {}
func (TouchMotion) ImplementsInputEvent()           {}
func (TouchFrame) ImplementsInputEvent()            {}
func (TouchCancel) ImplementsInputEvent()           {}
func (OutputConfigured) ImplementsInputEvent()      {}
func (FramePresented) ImplementsInputEvent()        {}
