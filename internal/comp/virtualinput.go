// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"golang.org/x/sys/unix"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// zwlr_virtual_pointer_v1 requests.
const (
	virtualPointerReqMotion         = 0
	virtualPointerReqMotionAbsolute = 1
	virtualPointerReqButton         = 2
	virtualPointerReqAxis           = 3
	virtualPointerReqFrame          = 4
	virtualPointerReqDestroy        = 8
)

// bindVirtualPointerManager lets automation clients synthesize pointer
// input; events feed the same injection paths as platform input.
func (st *State) bindVirtualPointerManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0, 2: // create_virtual_pointer[_with_output]
			if op == 0 {
				_ = r.Object() // seat
			} else {
				_ = r.Object() // seat
				_ = r.Object() // output
			}
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			vp := c.NewResource(id, "zwlr_virtual_pointer_v1", res.Version())
			vp.Dispatch = st.dispatchVirtualPointer(vp)
		case 1: // destroy
			res.Destroy()
		}
		return nil
	}
}

func (st *State) dispatchVirtualPointer(res *wl.Resource) func(uint16, *wire.Reader) error {
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case virtualPointerReqMotion:
			timeMS := r.Uint32()
			dx := r.Fixed()
			dy := r.Fixed()
			if err := r.Err(); err != nil {
				return err
			}
			st.InjectPointerMotionRelative(dx.Float64(), dy.Float64(), timeMS)
		case virtualPointerReqMotionAbsolute:
			timeMS := r.Uint32()
			x := r.Uint32()
			y := r.Uint32()
			xExtent := r.Uint32()
			yExtent := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			if xExtent == 0 || yExtent == 0 {
				return nil
			}
			o := st.PrimaryOutput()
			if o == nil {
				return nil
			}
			ax := float64(x) / float64(xExtent) * float64(o.Width)
			ay := float64(y) / float64(yExtent) * float64(o.Height)
			st.InjectPointerMotion(ax, ay, timeMS)
		case virtualPointerReqButton:
			timeMS := r.Uint32()
			button := r.Uint32()
			state := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			st.InjectPointerButton(button, state, timeMS)
		case virtualPointerReqAxis:
			timeMS := r.Uint32()
			axis := r.Uint32()
			value := r.Fixed()
			if err := r.Err(); err != nil {
				return err
			}
			if axis == axisHorizontal {
				st.InjectPointerAxis(value.Float64(), 0, timeMS)
			} else {
				st.InjectPointerAxis(0, value.Float64(), timeMS)
			}
		case virtualPointerReqFrame:
			// Injection paths already frame their event groups.
		case virtualPointerReqDestroy:
			res.Destroy()
		}
		return nil
	}
}

// zwp_virtual_keyboard_v1 requests.
const (
	virtualKeyboardReqKeymap    = 0
	virtualKeyboardReqKey       = 1
	virtualKeyboardReqModifiers = 2
	virtualKeyboardReqDestroy   = 3
)

func (st *State) bindVirtualKeyboardManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		if op != 0 { // create_virtual_keyboard
			return nil
		}
		_ = r.Object() // seat
		id := r.NewID()
		if err := r.Err(); err != nil {
			return err
		}
		vk := c.NewResource(id, "zwp_virtual_keyboard_v1", res.Version())
		vk.Dispatch = func(op uint16, r *wire.Reader) error {
			switch op {
			case virtualKeyboardReqKeymap:
				_ = r.Uint32()
				fd := r.Fd()
				_ = r.Uint32()
				if err := r.Err(); err != nil {
					return err
				}
				// The seat keeps its own keymap; the client's copy is
				// not adopted.
				if fd >= 0 {
					unix.Close(fd)
				}
			case virtualKeyboardReqKey:
				timeMS := r.Uint32()
				key := r.Uint32()
				state := r.Uint32()
				if err := r.Err(); err != nil {
					return err
				}
				st.InjectKey(key, state, timeMS)
			case virtualKeyboardReqModifiers:
				dep := r.Uint32()
				lat := r.Uint32()
				lock := r.Uint32()
				grp := r.Uint32()
				if err := r.Err(); err != nil {
					return err
				}
				st.InjectModifiers(dep, lat, lock, grp)
			case virtualKeyboardReqDestroy:
				vk.Destroy()
			}
			return nil
		}
		return nil
	}
}
