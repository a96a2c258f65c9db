// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"fmt"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// wl_output requests and events.
const (
	outputReqRelease = 0

	outputEvtGeometry    = 0
	outputEvtMode        = 1
	outputEvtDone        = 2
	outputEvtScale       = 3
	outputEvtName        = 4
	outputEvtDescription = 5

	outputModeCurrent   uint32 = 1
	outputModePreferred uint32 = 2

	outputSubpixelUnknown int32 = 0
)

// zxdg_output_manager_v1 / zxdg_output_v1.
const (
	xdgOutputManagerReqDestroy      = 0
	xdgOutputManagerReqGetXdgOutput = 1

	xdgOutputReqDestroy = 0

	xdgOutputEvtLogicalPosition = 0
	xdgOutputEvtLogicalSize     = 1
	xdgOutputEvtDone            = 2
	xdgOutputEvtName            = 3
	xdgOutputEvtDescription     = 4
)

func (st *State) bindOutput(c *wl.Client, res *wl.Resource) {
	o := st.PrimaryOutput()
	if o == nil {
		return
	}
	res.Data = o.ID
	o.bindings = append(o.bindings, res)
	st.sendOutputInfo(res, o)
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		if op == outputReqRelease {
			res.Destroy()
		}
		return nil
	}
	res.OnDestroy = func() {
		o.bindings = dropResource(o.bindings, res)
	}
}

// sendOutputInfo emits the full geometry/mode/scale/name block closed
// by done, honoring the bound version.
func (st *State) sendOutputInfo(res *wl.Resource, o *Output) {
	res.Send(res.NewEvent(outputEvtGeometry).
		PutInt32(o.X).
		PutInt32(o.Y).
		PutInt32(o.Width). // physical size unknown; report pixels
		PutInt32(o.Height).
		PutInt32(outputSubpixelUnknown).
		PutString("Wawona").
		PutString("virtual output").
		PutInt32(int32(o.Transform)))
	for _, m := range o.Modes {
		flags := uint32(0)
		if m.Preferred {
			flags = outputModeCurrent | outputModePreferred
		}
		res.Send(res.NewEvent(outputEvtMode).
			PutUint32(flags).
			PutInt32(m.Width).
			PutInt32(m.Height).
			PutInt32(m.RefreshMHz))
	}
	if res.Version() >= 2 {
		scale := int32(o.Scale)
		if scale < 1 {
			scale = 1
		}
		res.Send(res.NewEvent(outputEvtScale).PutInt32(scale))
	}
	if res.Version() >= 4 {
		res.Send(res.NewEvent(outputEvtName).PutString(fmt.Sprintf("WAWONA-%d", o.ID)))
		res.Send(res.NewEvent(outputEvtDescription).PutString("Wawona virtual output"))
	}
	if res.Version() >= 2 {
		res.Send(res.NewEvent(outputEvtDone))
	}
}

// notifyOutputChanged re-sends geometry to every bound wl_output and
// zxdg_output, each block closed atomically with done.
func (st *State) notifyOutputChanged(o *Output) {
	for _, res := range o.bindings {
		if res.Alive() {
			st.sendOutputInfo(res, o)
		}
	}
	for _, res := range o.xdgBindings {
		if res.Alive() {
			st.sendXdgOutputInfo(res, o)
		}
	}
}

func (st *State) bindXdgOutputManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case xdgOutputManagerReqDestroy:
			res.Destroy()
		case xdgOutputManagerReqGetXdgOutput:
			id := r.NewID()
			outRes := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			if outRes == nil {
				return nil
			}
			outputID, _ := outRes.Data.(uint32)
			o := st.Output(outputID)
			if o == nil {
				return nil
			}
			xres := c.NewResource(id, "zxdg_output_v1", res.Version())
			xres.Data = o.ID
			o.xdgBindings = append(o.xdgBindings, xres)
			st.sendXdgOutputInfo(xres, o)
			xres.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == xdgOutputReqDestroy {
					xres.Destroy()
				}
				return nil
			}
			xres.OnDestroy = func() {
				o.xdgBindings = dropResource(o.xdgBindings, xres)
			}
		}
		return nil
	}
}

func (st *State) sendXdgOutputInfo(res *wl.Resource, o *Output) {
	scale := o.Scale
	if scale <= 0 {
		scale = 1
	}
	res.Send(res.NewEvent(xdgOutputEvtLogicalPosition).
		PutInt32(o.X).
		PutInt32(o.Y))
	res.Send(res.NewEvent(xdgOutputEvtLogicalSize).
		PutInt32(int32(float64(o.Width) / scale)).
		PutInt32(int32(float64(o.Height) / scale)))
	if res.Version() >= 2 {
		res.Send(res.NewEvent(xdgOutputEvtName).PutString(fmt.Sprintf("WAWONA-%d", o.ID)))
	}
	// Since v3 the done event is deprecated in favor of
	// wl_output.done; keep sending it to older binds.
	if res.Version() < 3 {
		res.Send(res.NewEvent(xdgOutputEvtDone))
	}
	for _, b := range o.bindings {
		if b.Alive() && b.Client() == res.Client() && b.Version() >= 2 {
			b.Send(b.NewEvent(outputEvtDone))
		}
	}
}
