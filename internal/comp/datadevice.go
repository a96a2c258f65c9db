// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"golang.org/x/sys/unix"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// wl_data_device_manager requests.
const (
	dataManagerReqCreateSource = 0
	dataManagerReqGetDevice    = 1
)

// wl_data_source requests and events.
const (
	dataSourceReqOffer      = 0
	dataSourceReqDestroy    = 1
	dataSourceReqSetActions = 2

	dataSourceEvtTarget           = 0
	dataSourceEvtSend             = 1
	dataSourceEvtCancelled        = 2
	dataSourceEvtDndDropPerformed = 3
	dataSourceEvtDndFinished      = 4
	dataSourceEvtAction           = 5
)

// wl_data_device requests and events.
const (
	dataDeviceReqStartDrag    = 0
	dataDeviceReqSetSelection = 1
	dataDeviceReqRelease      = 2

	dataDeviceEvtDataOffer = 0
	dataDeviceEvtEnter     = 1
	dataDeviceEvtLeave     = 2
	dataDeviceEvtMotion    = 3
	dataDeviceEvtDrop      = 4
	dataDeviceEvtSelection = 5
)

// wl_data_offer requests and events.
const (
	dataOfferReqAccept     = 0
	dataOfferReqReceive    = 1
	dataOfferReqDestroy    = 2
	dataOfferReqFinish     = 3
	dataOfferReqSetActions = 4

	dataOfferEvtOffer         = 0
	dataOfferEvtSourceActions = 1
	dataOfferEvtAction        = 2
)

func (st *State) bindDataDeviceManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case dataManagerReqCreateSource:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			sres := c.NewResource(id, "wl_data_source", res.Version())
			src := &SelectionSource{Client: c.ID(), Res: sres}
			sres.Data = src
			sres.Dispatch = dispatchDataSource(sres, src)
			sres.OnDestroy = func() {
				if st.selection == src {
					st.selection = nil
				}
				if st.drag != nil && st.drag.Source == src {
					st.EndDrag(false)
				}
			}
		case dataManagerReqGetDevice:
			id := r.NewID()
			_ = r.Object() // seat
			if err := r.Err(); err != nil {
				return err
			}
			dres := c.NewResource(id, "wl_data_device", res.Version())
			dev := &DataDevice{Client: c.ID(), Res: dres}
			dres.Data = dev
			st.AddDataDevice(dev)
			dres.Dispatch = st.dispatchDataDevice(dres)
			dres.OnDestroy = func() { st.RemoveDataDevice(dres) }
		}
		return nil
	}
}

func dispatchDataSource(res *wl.Resource, src *SelectionSource) func(uint16, *wire.Reader) error {
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case dataSourceReqOffer:
			mime := r.String()
			if err := r.Err(); err != nil {
				return err
			}
			src.Mimes = append(src.Mimes, mime)
		case dataSourceReqDestroy:
			res.Destroy()
		case dataSourceReqSetActions:
			src.Actions = r.Uint32()
			return r.Err()
		}
		return nil
	}
}

func (st *State) dispatchDataDevice(res *wl.Resource) func(uint16, *wire.Reader) error {
	c := res.Client()
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case dataDeviceReqStartDrag:
			srcID := r.Object()
			originID := r.Object()
			iconID := r.Object()
			serial := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			var src *SelectionSource
			if srcRes := c.Get(srcID); srcRes != nil {
				src, _ = srcRes.Data.(*SelectionSource)
			}
			var origin, icon uint32
			if ores := c.Get(originID); ores != nil {
				origin, _ = ores.Data.(uint32)
			}
			if ires := c.Get(iconID); ires != nil {
				icon, _ = ires.Data.(uint32)
			}
			st.StartDrag(c.ID(), src, origin, icon, serial)
		case dataDeviceReqSetSelection:
			srcID := r.Object()
			_ = r.Uint32() // serial
			if err := r.Err(); err != nil {
				return err
			}
			if srcID == 0 {
				st.SetSelection(nil)
				return nil
			}
			srcRes := c.Get(srcID)
			if srcRes == nil {
				return nil
			}
			src, _ := srcRes.Data.(*SelectionSource)
			st.SetSelection(src)
		case dataDeviceReqRelease:
			res.Destroy()
		}
		return nil
	}
}

// dispatchDataOffer handles both wl_data_offer and data-control offers;
// receive pipes the request through to the source's client.
func (st *State) dispatchDataOffer(offer *wl.Resource) func(uint16, *wire.Reader) error {
	return func(op uint16, r *wire.Reader) error {
		od, _ := offer.Data.(*OfferData)
		control := offer.Interface() != "wl_data_offer"
		switch {
		case !control && op == dataOfferReqAccept:
			_ = r.Uint32()
			mime := r.String()
			if err := r.Err(); err != nil {
				return err
			}
			if od != nil && od.Source != nil && od.Source.Res.Alive() {
				od.Source.Res.Send(od.Source.Res.NewEvent(dataSourceEvtTarget).PutString(mime))
			}
		case (!control && op == dataOfferReqReceive) || (control && op == 0):
			mime := r.String()
			fd := r.Fd()
			if err := r.Err(); err != nil {
				return err
			}
			if od != nil && od.Source != nil && od.Source.Res.Alive() {
				src := od.Source.Res
				evt := uint16(dataSourceEvtSend)
				if od.Source.Control {
					evt = dataControlSourceEvtSend
				}
				src.Send(src.NewEvent(evt).PutString(mime).PutFd(fd))
			} else if fd >= 0 {
				unix.Close(fd)
			}
		case (!control && op == dataOfferReqDestroy) || (control && op == 1):
			offer.Destroy()
		case !control && op == dataOfferReqFinish:
			if od != nil && od.Source != nil && od.Source.Res.Alive() && od.Source.Res.Version() >= 3 {
				src := od.Source.Res
				src.Send(src.NewEvent(dataSourceEvtDndFinished))
			}
		case !control && op == dataOfferReqSetActions:
			// Action negotiation is advisory here: echo the preferred
			// action back.
			_ = r.Uint32()
			preferred := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			if offer.Version() >= 3 {
				offer.Send(offer.NewEvent(dataOfferEvtAction).PutUint32(preferred))
			}
		}
		return nil
	}
}
