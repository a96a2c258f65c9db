// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// zwp_relative_pointer_manager_v1 / zwp_relative_pointer_v1.
const (
	relativeManagerReqDestroy            = 0
	relativeManagerReqGetRelativePointer = 1

	relativePointerReqDestroy = 0

	relativePointerEvtMotion = 0
)

// zwp_pointer_constraints_v1.
const (
	constraintsReqDestroy        = 0
	constraintsReqLockPointer    = 1
	constraintsReqConfinePointer = 2

	constraintsErrAlreadyConstrained = 1

	lockedPointerEvtLocked   = 0
	lockedPointerEvtUnlocked = 1

	confinedPointerEvtConfined   = 0
	confinedPointerEvtUnconfined = 1
)

// ConstraintKind discriminates lock vs confine.
type ConstraintKind uint8

const (
	ConstraintLock ConstraintKind = iota
	ConstraintConfine
)

// PointerConstraint is a lock or confinement bound to a surface; it
// activates while that surface holds pointer focus.
type PointerConstraint struct {
	Kind    ConstraintKind
	Surface uint32
	Res     *wl.Resource
	Active  bool
}

func (st *State) bindRelativePointerManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case relativeManagerReqDestroy:
			res.Destroy()
		case relativeManagerReqGetRelativePointer:
			id := r.NewID()
			_ = r.Object() // pointer
			if err := r.Err(); err != nil {
				return err
			}
			rp := c.NewResource(id, "zwp_relative_pointer_v1", res.Version())
			st.relativePointers = append(st.relativePointers, rp)
			rp.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == relativePointerReqDestroy {
					rp.Destroy()
				}
				return nil
			}
			rp.OnDestroy = func() {
				st.relativePointers = dropResource(st.relativePointers, rp)
			}
		}
		return nil
	}
}

func (st *State) bindPointerConstraints(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case constraintsReqDestroy:
			res.Destroy()
		case constraintsReqLockPointer, constraintsReqConfinePointer:
			id := r.NewID()
			sres := c.Get(r.Object())
			_ = r.Object() // pointer
			_ = r.Object() // region
			_ = r.Uint32() // lifetime
			if err := r.Err(); err != nil {
				return err
			}
			if sres == nil {
				return nil
			}
			surface, _ := sres.Data.(uint32)
			if _, exists := st.constraints[surface]; exists {
				c.PostError(res, constraintsErrAlreadyConstrained, "surface already constrained")
				return nil
			}
			kind := ConstraintLock
			iface := "zwp_locked_pointer_v1"
			if op == constraintsReqConfinePointer {
				kind = ConstraintConfine
				iface = "zwp_confined_pointer_v1"
			}
			cres := c.NewResource(id, iface, res.Version())
			pc := &PointerConstraint{Kind: kind, Surface: surface, Res: cres}
			st.constraints[surface] = pc
			cres.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == 0 { // destroy
					cres.Destroy()
				}
				return nil
			}
			cres.OnDestroy = func() {
				if st.constraints[surface] == pc {
					delete(st.constraints, surface)
				}
			}
			if st.seat.Pointer.Focus == surface || st.seat.Keyboard.Focus == surface {
				st.activateConstraint(surface)
			}
		}
		return nil
	}
}

// activateConstraint arms the constraint of a newly focused surface.
func (st *State) activateConstraint(surface uint32) {
	pc := st.constraints[surface]
	if pc == nil || pc.Active {
		return
	}
	pc.Active = true
	if pc.Res.Alive() {
		if pc.Kind == ConstraintLock {
			pc.Res.Send(pc.Res.NewEvent(lockedPointerEvtLocked))
		} else {
			pc.Res.Send(pc.Res.NewEvent(confinedPointerEvtConfined))
		}
	}
}

// deactivateConstraint disarms the constraint when focus leaves.
func (st *State) deactivateConstraint(surface uint32) {
	pc := st.constraints[surface]
	if pc == nil || !pc.Active {
		return
	}
	pc.Active = false
	if pc.Res.Alive() {
		if pc.Kind == ConstraintLock {
			pc.Res.Send(pc.Res.NewEvent(lockedPointerEvtUnlocked))
		} else {
			pc.Res.Send(pc.Res.NewEvent(confinedPointerEvtUnconfined))
		}
	}
}

// pointerLocked suppresses absolute motion delivery to a surface with
// an active lock; relative deltas still flow.
func (st *State) pointerLocked(surface uint32) bool {
	pc := st.constraints[surface]
	return pc != nil && pc.Active && pc.Kind == ConstraintLock
}

// zwp_pointer_gestures_v1: swipe/pinch/hold resources are accepted and
// kept alive, but no gesture recognition feeds them yet.
func (st *State) bindPointerGestures(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0, 1, 3: // get_swipe_gesture, get_pinch_gesture, get_hold_gesture
			id := r.NewID()
			_ = r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			g := c.NewResource(id, "zwp_pointer_gesture_v1", res.Version())
			g.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == 0 {
					g.Destroy()
				}
				return nil
			}
		case 2: // release
			res.Destroy()
		}
		return nil
	}
}

// wp_cursor_shape_manager_v1: shape names resolve platform-side; the
// device just remembers the last requested shape.
const (
	cursorShapeManagerReqDestroy    = 0
	cursorShapeManagerReqGetPointer = 1

	cursorShapeDeviceReqDestroy  = 0
	cursorShapeDeviceReqSetShape = 1
)

func (st *State) bindCursorShapeManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case cursorShapeManagerReqDestroy:
			res.Destroy()
		case cursorShapeManagerReqGetPointer:
			id := r.NewID()
			_ = r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			d := c.NewResource(id, "wp_cursor_shape_device_v1", res.Version())
			d.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case cursorShapeDeviceReqDestroy:
					d.Destroy()
				case cursorShapeDeviceReqSetShape:
					_ = r.Uint32() // serial
					shape := r.Uint32()
					if err := r.Err(); err != nil {
						return err
					}
					st.seat.Pointer.CursorSurface = 0
					st.seat.Pointer.CursorShape = shape
				}
				return nil
			}
		}
		return nil
	}
}
