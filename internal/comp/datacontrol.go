// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// ext_data_control_manager_v1 requests.
const (
	dataControlManagerReqCreateSource = 0
	dataControlManagerReqGetDevice    = 1
	dataControlManagerReqDestroy      = 2
)

// ext_data_control_device_v1 events.
const (
	dataControlDeviceEvtDataOffer = 0
	dataControlDeviceEvtSelection = 1
)

// ext_data_control_source_v1 events.
const (
	dataControlSourceEvtSend      = 0
	dataControlSourceEvtCancelled = 1
)

// bindDataControlManager wires clipboard managers that act without
// input focus. Control sources share the SelectionSource machinery;
// only the event opcodes differ.
func (st *State) bindDataControlManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case dataControlManagerReqCreateSource:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			sres := c.NewResource(id, "ext_data_control_source_v1", res.Version())
			src := &SelectionSource{Client: c.ID(), Res: sres, Control: true}
			sres.Data = src
			sres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case 0: // offer
					mime := r.String()
					if err := r.Err(); err != nil {
						return err
					}
					src.Mimes = append(src.Mimes, mime)
				case 1: // destroy
					sres.Destroy()
				}
				return nil
			}
			sres.OnDestroy = func() {
				if st.selection == src {
					st.selection = nil
				}
			}
		case dataControlManagerReqGetDevice:
			id := r.NewID()
			_ = r.Object() // seat
			if err := r.Err(); err != nil {
				return err
			}
			dres := c.NewResource(id, "ext_data_control_device_v1", res.Version())
			dev := &DataDevice{Client: c.ID(), Res: dres, Control: true}
			dres.Data = dev
			st.AddDataDevice(dev)
			dres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case 0: // set_selection
					srcID := r.Object()
					if err := r.Err(); err != nil {
						return err
					}
					if srcID == 0 {
						st.SetSelection(nil)
						return nil
					}
					if srcRes := c.Get(srcID); srcRes != nil {
						if src, ok := srcRes.Data.(*SelectionSource); ok {
							st.SetSelection(src)
						}
					}
				case 1: // destroy
					dres.Destroy()
				}
				return nil
			}
			dres.OnDestroy = func() { st.RemoveDataDevice(dres) }
		case dataControlManagerReqDestroy:
			res.Destroy()
		}
		return nil
	}
}
