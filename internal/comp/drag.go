// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// Drag is the active drag-and-drop operation; at most one exists.
type Drag struct {
	Client uint64
	Source *SelectionSource // nil for intra-client drags without a source
	Origin uint32
	Icon   uint32
	Serial uint32

	Focus uint32       // destination surface under the pointer
	Offer *wl.Resource // offer created for the current destination
}

// toplevelDragAttachment moves a window along with the pointer during
// an xdg_toplevel_drag.
type toplevelDragAttachment struct {
	Window  uint32
	XOffset int32
	YOffset int32
}

// StartDrag begins a drag rooted at origin. It requires an active
// implicit pointer grab on origin; the serial is recorded but not
// compared with the press serial.
func (st *State) StartDrag(client uint64, source *SelectionSource, origin, icon uint32, serial uint32) bool {
	if st.drag != nil {
		return false
	}
	if st.focus.Grabbed != origin || st.seat.Pointer.ButtonCount == 0 {
		log.Debug().Uint32("origin", origin).Msg("start_drag without implicit grab, ignored")
		return false
	}
	st.drag = &Drag{
		Client: client,
		Source: source,
		Origin: origin,
		Icon:   icon,
		Serial: serial,
	}
	log.Info().
		Uint32("origin", origin).
		Uint32("icon", icon).
		Uint32("serial", serial).
		Msg("drag started")
	return true
}

// Dragging is exposed for tests.
func (st *State) Dragging() bool { return st.drag != nil }

// dragMotion routes motion while a drag is active: focus changes send
// leave then enter with a fresh offer, a stable focus just gets
// motion. An attached toplevel translates with the pointer.
func (st *State) dragMotion(x, y float64, timeMS uint32) {
	d := st.drag
	surface, lx, ly, ok := st.SurfaceAt(x, y)
	newFocus := uint32(0)
	if ok {
		newFocus = surface
	}

	if newFocus != d.Focus {
		if d.Focus != 0 {
			st.dragLeave(d.Focus)
		}
		d.Offer = nil
		if newFocus != 0 {
			st.dragEnter(newFocus, lx, ly)
		}
		d.Focus = newFocus
	} else if newFocus != 0 {
		st.dragSendMotion(newFocus, timeMS, lx, ly)
	}

	if att := st.toplevelDrag; att != nil {
		if w := st.windows[att.Window]; w != nil {
			w.X = int32(x) + att.XOffset
			w.Y = int32(y) + att.YOffset
			st.MarkSceneDirty()
		}
	}
}

func (st *State) dragDevicesFor(surface uint32) []*DataDevice {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return nil
	}
	var out []*DataDevice
	for _, d := range st.devices {
		if d.Res.Alive() && d.Res.Client() == res.Client() {
			out = append(out, d)
		}
	}
	return out
}

func (st *State) dragEnter(surface uint32, x, y float64) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	serial := st.NextSerial()
	for _, d := range st.dragDevicesFor(surface) {
		var offerID uint32
		if st.drag.Source != nil {
			offer := st.newOfferFor(d, st.drag.Source, true)
			st.drag.Offer = offer
			offerID = offer.ID()
		}
		d.Res.Send(d.Res.NewEvent(dataDeviceEvtEnter).
			PutUint32(serial).
			PutUint32(res.ID()).
			PutFixed(wire.FixedFromFloat64(x)).
			PutFixed(wire.FixedFromFloat64(y)).
			PutUint32(offerID))
	}
}

func (st *State) dragLeave(surface uint32) {
	for _, d := range st.dragDevicesFor(surface) {
		d.Res.Send(d.Res.NewEvent(dataDeviceEvtLeave))
	}
}

func (st *State) dragSendMotion(surface uint32, timeMS uint32, x, y float64) {
	for _, d := range st.dragDevicesFor(surface) {
		d.Res.Send(d.Res.NewEvent(dataDeviceEvtMotion).
			PutUint32(timeMS).
			PutFixed(wire.FixedFromFloat64(x)).
			PutFixed(wire.FixedFromFloat64(y)))
	}
}

// EndDrag finishes the drag. dropped with a live focus sends drop to
// the destination and dnd_drop_performed to the source and parks the
// drag in drop-pending until the destination destroys the offer;
// anything else sends leave (if focused) and cancelled to the source.
// Exactly one of cancelled/drop_performed fires per drag.
func (st *State) EndDrag(dropped bool) {
	st.toplevelDrag = nil
	d := st.drag
	if d == nil {
		return
	}
	st.drag = nil

	if dropped && d.Focus != 0 {
		for _, dev := range st.dragDevicesFor(d.Focus) {
			dev.Res.Send(dev.Res.NewEvent(dataDeviceEvtDrop))
		}
		d.Source.SendDropPerformed()
		if d.Offer != nil {
			st.dropPending = d
		}
		log.Info().Uint32("destination", d.Focus).Msg("drag dropped")
		return
	}

	if d.Focus != 0 {
		st.dragLeave(d.Focus)
	}
	d.Source.SendCancelled()
	log.Info().Bool("dropped", dropped).Msg("drag cancelled")
}
