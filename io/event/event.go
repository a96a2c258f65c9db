// SPDX-License-Identifier: Unlicense OR MIT

// Package event defines the compositor-to-platform event set. The
// platform shell consumes these as a FIFO and turns them into native
// windows, redraws and cursor updates; the core never draws pixels.
package event

// Event is the marker interface for compositor-to-platform events.
type Event interface {
	ImplementsEvent()
}

// DecorationMode tells the platform who draws the window frame.
type DecorationMode uint8

const (
	DecorationClientSide DecorationMode = iota
	DecorationServerSide
)

// SurfaceCommitted reports a committed surface with its current buffer.
type SurfaceCommitted struct {
	Client  uint64
	Surface uint32
	Buffer  uint64 // 0 when no buffer is attached
}

// LayerSurfaceCommitted is SurfaceCommitted for layer-shell surfaces.
type LayerSurfaceCommitted struct {
	Client  uint64
	Surface uint32
	Buffer  uint64
}

// CursorCommitted reports a committed cursor surface and its hotspot.
type CursorCommitted struct {
	Client   uint64
	Surface  uint32
	Buffer   uint64
	HotspotX int32
	HotspotY int32
}

// WindowCreated asks the platform to realize a new toplevel.
type WindowCreated struct {
	Client          uint64
	Window          uint32
	Surface         uint32
	Title           string
	Width           uint32
	Height          uint32
	Decoration      DecorationMode
	FullscreenShell bool
}

type WindowDestroyed struct {
	Window uint32
}

type WindowSizeChanged struct {
	Window uint32
	Width  uint32
	Height uint32
}

type WindowTitleChanged struct {
	Window uint32
	Title  string
}

type WindowMaximized struct {
	Window    uint32
	Maximized bool
}

type WindowMinimized struct {
	Window    uint32
	Minimized bool
}

// WindowMoveRequested forwards an interactive move started by the
// client with the given input serial.
type WindowMoveRequested struct {
	Window uint32
	Seat   uint32
	Serial uint32
}

// WindowResizeRequested forwards an interactive resize; Edges uses the
// xdg_toplevel resize-edge codes.
type WindowResizeRequested struct {
	Window uint32
	Seat   uint32
	Serial uint32
	Edges  uint32
}

type WindowCloseRequested struct {
	Window uint32
}

type WindowActivationRequested struct {
	Window uint32
}

type PopupCreated struct {
	Client  uint64
	Window  uint32
	Surface uint32
	Parent  uint32
	X       int32
	Y       int32
	Width   uint32
	Height  uint32
}

type PopupRepositioned struct {
	Window uint32
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// SystemBell rings the platform's attention signal.
type SystemBell struct {
	Client  uint64
	Surface uint32
}

func (SurfaceCommitted) ImplementsEvent()          {}
func (LayerSurfaceCommitted) ImplementsEvent()     {}
func (CursorCommitted) ImplementsEvent()           {}
func (WindowCreated) ImplementsEvent()             {}
func (WindowDestroyed) ImplementsEvent()           {}
func (WindowSizeChanged) ImplementsEvent()         {}
func (WindowTitleChanged) ImplementsEvent()        {}
func (WindowMaximized) ImplementsEvent()           {}
func (WindowMinimized) ImplementsEvent()           {}
func (WindowMoveRequested) ImplementsEvent()       {}
func (WindowResizeRequested) ImplementsEvent()     {}
func (WindowCloseRequested) ImplementsEvent()      {}
func (WindowActivationRequested) ImplementsEvent() {}
func (PopupCreated) ImplementsEvent()              {}
func (PopupRepositioned) ImplementsEvent()         {}
func (SystemBell) ImplementsEvent()                {}
