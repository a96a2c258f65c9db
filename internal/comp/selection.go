// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wl"
)

// SelectionSource is a clipboard or drag source: a MIME set advertised
// by one client. Cancelled and DropPerformed latch so each terminal
// event fires at most once.
type SelectionSource struct {
	Client  uint64
	Res     *wl.Resource
	Mimes   []string
	Actions uint32

	// Control marks sources created through the data-control
	// manager rather than wl_data_device_manager.
	Control bool

	cancelled     bool
	dropPerformed bool
}

// SendCancelled delivers cancelled exactly once.
func (s *SelectionSource) SendCancelled() {
	if s == nil || s.cancelled {
		return
	}
	s.cancelled = true
	if s.Res.Alive() {
		evt := uint16(dataSourceEvtCancelled)
		if s.Control {
			evt = dataControlSourceEvtCancelled
		}
		s.Res.Send(s.Res.NewEvent(evt))
	}
}

// SendDropPerformed delivers dnd_drop_performed exactly once, on v3+
// sources.
func (s *SelectionSource) SendDropPerformed() {
	if s == nil || s.dropPerformed {
		return
	}
	s.dropPerformed = true
	if s.Res.Alive() && s.Res.Version() >= 3 {
		s.Res.Send(s.Res.NewEvent(dataSourceEvtDndDropPerformed))
	}
}

// Cancelled is exposed for tests.
func (s *SelectionSource) Cancelled() bool { return s.cancelled }

// DropPerformed is exposed for tests.
func (s *SelectionSource) DropPerformed() bool { return s.dropPerformed }

// DataDevice is one bound wl_data_device (or data-control device).
type DataDevice struct {
	Client  uint64
	Res     *wl.Resource
	Control bool
}

// OfferData is the user data of a data-offer resource.
type OfferData struct {
	Source *SelectionSource
	// Drag marks the offer created for the current drag; it outlives
	// drag end so the destination can still receive.
	Drag bool
}

// AddDataDevice registers a device for selection broadcasts.
func (st *State) AddDataDevice(d *DataDevice) {
	if d.Control {
		st.dataControls = append(st.dataControls, d)
	} else {
		st.devices = append(st.devices, d)
	}
	// A late-bound device immediately learns the current selection.
	if st.selection != nil {
		st.sendSelectionTo(d)
	}
}

// RemoveDataDevice forgets a device.
func (st *State) RemoveDataDevice(res *wl.Resource) {
	out := st.devices[:0]
	for _, d := range st.devices {
		if d.Res != res {
			out = append(out, d)
		}
	}
	st.devices = out
	outc := st.dataControls[:0]
	for _, d := range st.dataControls {
		if d.Res != res {
			outc = append(outc, d)
		}
	}
	st.dataControls = outc
}

// Selection is the current clipboard source, nil when unset.
func (st *State) Selection() *SelectionSource { return st.selection }

// SetSelection replaces the clipboard source: the displaced source is
// cancelled once, then every device hears selection(offer) with a
// fresh offer advertising the MIME set.
func (st *State) SetSelection(src *SelectionSource) {
	if st.selection != nil && st.selection != src {
		st.selection.SendCancelled()
	}
	st.selection = src
	log.Debug().Bool("set", src != nil).Msg("clipboard selection changed")

	for _, d := range st.devices {
		st.sendSelectionTo(d)
	}
	for _, d := range st.dataControls {
		st.sendSelectionTo(d)
	}
}

// sendSelectionTo creates a per-destination offer and delivers it via
// data_device.selection.
func (st *State) sendSelectionTo(d *DataDevice) {
	if !d.Res.Alive() {
		return
	}
	evt := uint16(dataDeviceEvtSelection)
	if d.Control {
		evt = dataControlDeviceEvtSelection
	}
	if st.selection == nil {
		d.Res.Send(d.Res.NewEvent(evt).PutUint32(0))
		return
	}
	offer := st.newOfferFor(d, st.selection, false)
	d.Res.Send(d.Res.NewEvent(evt).PutUint32(offer.ID()))
}

// newOfferFor mints an offer resource on the device's client,
// introduces it, and advertises the source's MIME types plus
// source-actions on v3+ wl_data_offers.
func (st *State) newOfferFor(d *DataDevice, src *SelectionSource, drag bool) *wl.Resource {
	client := d.Res.Client()
	iface := "wl_data_offer"
	intro := uint16(dataDeviceEvtDataOffer)
	if d.Control {
		iface = "ext_data_control_offer_v1"
		intro = dataControlDeviceEvtDataOffer
	}
	offer := client.NewServerResource(iface, d.Res.Version())
	offer.Data = &OfferData{Source: src, Drag: drag}
	offer.Dispatch = st.dispatchDataOffer(offer)
	offer.OnDestroy = func() { st.offerDestroyed(offer) }

	d.Res.Send(d.Res.NewEvent(intro).PutUint32(offer.ID()))
	for _, mime := range src.Mimes {
		offer.Send(offer.NewEvent(dataOfferEvtOffer).PutString(mime))
	}
	if !d.Control && offer.Version() >= 3 {
		offer.Send(offer.NewEvent(dataOfferEvtSourceActions).PutUint32(src.Actions))
	}
	return offer
}

// offerDestroyed ends the drop-pending phase once the destination
// discards the drag offer.
func (st *State) offerDestroyed(offer *wl.Resource) {
	od, _ := offer.Data.(*OfferData)
	if od == nil || !od.Drag {
		return
	}
	if st.drag != nil && st.drag.Offer == offer {
		st.drag.Offer = nil
	}
	if st.dropPending != nil && st.dropPending.Offer == offer {
		st.dropPending = nil
		log.Debug().Msg("drag offer destroyed, drop finished")
	}
}
