// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wl"
)

// Role is the structural kind of a surface. It is set at most once to a
// non-none value; a second, different assignment is a protocol error.
type Role uint8

const (
	RoleNone Role = iota
	RoleToplevel
	RolePopup
	RoleSubsurface
	RoleCursor
	RoleLayer
)

func (r Role) String() string {
	switch r {
	case RoleToplevel:
		return "toplevel"
	case RolePopup:
		return "popup"
	case RoleSubsurface:
		return "subsurface"
	case RoleCursor:
		return "cursor"
	case RoleLayer:
		return "layer"
	default:
		return "none"
	}
}

// Transform codes from wl_output, applied to buffer contents.
type Transform uint32

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

// SurfaceState is one double-buffered snapshot of surface state.
// Pending accumulates requests, current is what the compositor shows,
// cached parks a commit of a synchronized subsurface until an ancestor
// commits.
type SurfaceState struct {
	Buffer    BufferRef
	BufferID  uint32 // 0 = no buffer
	Width     int32
	Height    int32
	OffsetX   int32
	OffsetY   int32
	Scale     int32
	Transform Transform

	Damage []Rect

	// InputRegion nil means infinite; OpaqueRegion nil means empty.
	InputRegion  []Rect
	OpaqueRegion []Rect
}

func defaultSurfaceState() SurfaceState {
	return SurfaceState{Scale: 1}
}

// Surface is the atomic unit of client content.
type Surface struct {
	ID     uint32
	Client uint64
	Role   Role

	Res *wl.Resource // nil for state-only surfaces in tests

	Current SurfaceState
	Pending SurfaceState
	Cached  *SurfaceState

	// FrameCallbacks holds wl_callback resources queued by frame,
	// fired after the next successful present.
	FrameCallbacks []*wl.Resource
}

func NewSurface(id uint32, client uint64, res *wl.Resource) *Surface {
	return &Surface{
		ID:      id,
		Client:  client,
		Res:     res,
		Current: defaultSurfaceState(),
		Pending: defaultSurfaceState(),
	}
}

// SetRole assigns the surface role once.
func (s *Surface) SetRole(role Role) error {
	if s.Role != RoleNone && s.Role != role {
		return waylandErr("surface %d has role %s, cannot change to %s", s.ID, s.Role, role)
	}
	s.Role = role
	return nil
}

// applyState moves pending (or cached) into current and returns the id
// of the displaced buffer, or 0.
func applyState(from *SurfaceState, current *SurfaceState) uint32 {
	var released uint32
	if from.BufferID != current.BufferID {
		released = current.BufferID
	}
	current.Buffer = from.Buffer
	current.BufferID = from.BufferID
	current.Width = from.Width
	current.Height = from.Height
	current.OffsetX = from.OffsetX
	current.OffsetY = from.OffsetY
	current.Scale = from.Scale
	current.Transform = from.Transform
	current.InputRegion = from.InputRegion
	current.OpaqueRegion = from.OpaqueRegion
	current.Damage = append(current.Damage, from.Damage...)
	from.Damage = from.Damage[:0]
	return released
}

// Commit applies pending to current and returns the displaced buffer
// id, or 0.
func (s *Surface) Commit() uint32 {
	released := applyState(&s.Pending, &s.Current)
	log.Debug().
		Uint32("surface", s.ID).
		Int32("w", s.Current.Width).
		Int32("h", s.Current.Height).
		Uint32("buffer", s.Current.BufferID).
		Msg("surface committed")
	return released
}

// CommitSync parks pending in cached and returns the buffer id the old
// cached state held, or 0.
func (s *Surface) CommitSync() uint32 {
	var released uint32
	if s.Cached != nil {
		released = s.Cached.BufferID
	}
	cached := s.Pending
	cached.Damage = append([]Rect(nil), s.Pending.Damage...)
	s.Pending.Damage = s.Pending.Damage[:0]
	s.Cached = &cached
	return released
}

// ApplyCached applies a parked commit and returns the displaced buffer
// id, or 0.
func (s *Surface) ApplyCached() uint32 {
	if s.Cached == nil {
		return 0
	}
	cached := s.Cached
	s.Cached = nil
	return applyState(cached, &s.Current)
}
