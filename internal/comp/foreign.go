// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"fmt"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// ext_foreign_toplevel_list_v1 events.
const (
	foreignListEvtToplevel = 0

	foreignHandleEvtClosed     = 0
	foreignHandleEvtDone       = 1
	foreignHandleEvtTitle      = 2
	foreignHandleEvtAppID      = 3
	foreignHandleEvtIdentifier = 4
)

// zwlr_foreign_toplevel_manager_v1 events.
const (
	wlrManagerEvtToplevel = 0
	wlrManagerEvtFinished = 1

	wlrHandleEvtTitle  = 0
	wlrHandleEvtAppID  = 1
	wlrHandleEvtState  = 4
	wlrHandleEvtDone   = 5
	wlrHandleEvtClosed = 6
)

func (st *State) bindForeignToplevelList(c *wl.Client, res *wl.Resource) {
	st.foreignLists = append(st.foreignLists, res)
	for _, wid := range st.stacking {
		st.sendForeignHandle(res, wid, false)
	}
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0: // stop
			st.foreignLists = dropResource(st.foreignLists, res)
		case 1: // destroy
			res.Destroy()
		}
		return nil
	}
	res.OnDestroy = func() {
		st.foreignLists = dropResource(st.foreignLists, res)
	}
}

func (st *State) bindWlrForeignToplevelManager(c *wl.Client, res *wl.Resource) {
	st.wlrManagers = append(st.wlrManagers, res)
	for _, wid := range st.stacking {
		st.sendForeignHandle(res, wid, true)
	}
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		if op == 0 { // stop
			res.Send(res.NewEvent(wlrManagerEvtFinished))
			st.wlrManagers = dropResource(st.wlrManagers, res)
		}
		return nil
	}
	res.OnDestroy = func() {
		st.wlrManagers = dropResource(st.wlrManagers, res)
	}
}

// sendForeignHandle introduces a window to one watcher.
func (st *State) sendForeignHandle(watcher *wl.Resource, window uint32, wlr bool) {
	w := st.windows[window]
	if w == nil || !watcher.Alive() {
		return
	}
	iface := "ext_foreign_toplevel_handle_v1"
	intro := uint16(foreignListEvtToplevel)
	if wlr {
		iface = "zwlr_foreign_toplevel_handle_v1"
		intro = wlrManagerEvtToplevel
	}
	h := watcher.Client().NewServerResource(iface, watcher.Version())
	h.Data = window
	watcher.Send(watcher.NewEvent(intro).PutUint32(h.ID()))
	st.foreignHandles[window] = append(st.foreignHandles[window], h)

	if wlr {
		h.Send(h.NewEvent(wlrHandleEvtTitle).PutString(w.Title))
		h.Send(h.NewEvent(wlrHandleEvtAppID).PutString(w.AppID))
		h.Send(h.NewEvent(wlrHandleEvtDone))
		h.Dispatch = st.dispatchWlrForeignHandle(h, window)
	} else {
		h.Send(h.NewEvent(foreignHandleEvtIdentifier).PutString(fmt.Sprintf("wawona-%08x", window)))
		h.Send(h.NewEvent(foreignHandleEvtTitle).PutString(w.Title))
		h.Send(h.NewEvent(foreignHandleEvtAppID).PutString(w.AppID))
		h.Send(h.NewEvent(foreignHandleEvtDone))
		h.Dispatch = func(op uint16, r *wire.Reader) error {
			if op == 0 {
				h.Destroy()
			}
			return nil
		}
	}
	h.OnDestroy = func() {
		out := st.foreignHandles[window][:0]
		for _, o := range st.foreignHandles[window] {
			if o != h {
				out = append(out, o)
			}
		}
		st.foreignHandles[window] = out
	}
}

// dispatchWlrForeignHandle lets taskbar-style clients drive window
// state.
func (st *State) dispatchWlrForeignHandle(h *wl.Resource, window uint32) func(uint16, *wire.Reader) error {
	return func(op uint16, r *wire.Reader) error {
		tkey, t := st.xdg.toplevelForWindow(window)
		switch op {
		case 0: // set_maximized
			if t != nil {
				st.SetMaximized(tkey.client, tkey.id, true)
			}
		case 1: // unset_maximized
			if t != nil {
				st.SetMaximized(tkey.client, tkey.id, false)
			}
		case 2: // set_minimized
			st.SetWindowMinimized(window, true)
		case 3: // unset_minimized
			st.SetWindowMinimized(window, false)
		case 4: // activate
			_ = r.Object()
			st.SetFocusedWindow(window)
			st.BringToFront(window)
		case 5: // close
			st.SendClose(window)
		case 6: // set_rectangle
			_ = r.Object()
			_, _, _, _ = r.Int32(), r.Int32(), r.Int32(), r.Int32()
		case 7: // destroy
			h.Destroy()
		case 8: // set_fullscreen
			_ = r.Object()
			if t != nil {
				st.SetFullscreen(tkey.client, tkey.id, true)
			}
		case 9: // unset_fullscreen
			if t != nil {
				st.SetFullscreen(tkey.client, tkey.id, false)
			}
		}
		return r.Err()
	}
}

// announceForeignToplevel introduces a new window to every watcher.
func (st *State) announceForeignToplevel(window uint32) {
	for _, l := range st.foreignLists {
		st.sendForeignHandle(l, window, false)
	}
	for _, m := range st.wlrManagers {
		st.sendForeignHandle(m, window, true)
	}
}

// foreignTitleChanged propagates a retitle to all handles.
func (st *State) foreignTitleChanged(window uint32, title string) {
	for _, h := range st.foreignHandles[window] {
		if !h.Alive() {
			continue
		}
		if h.Interface() == "zwlr_foreign_toplevel_handle_v1" {
			h.Send(h.NewEvent(wlrHandleEvtTitle).PutString(title))
			h.Send(h.NewEvent(wlrHandleEvtDone))
		} else {
			h.Send(h.NewEvent(foreignHandleEvtTitle).PutString(title))
			h.Send(h.NewEvent(foreignHandleEvtDone))
		}
	}
}

// foreignStateChanged pushes the state array to wlr handles.
func (st *State) foreignStateChanged(window uint32) {
	w := st.windows[window]
	if w == nil {
		return
	}
	var states []byte
	put := func(v uint32) {
		states = append(states, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	if w.Maximized {
		put(0)
	}
	if w.Minimized {
		put(1)
	}
	if w.Activated {
		put(2)
	}
	if w.Fullscreen {
		put(3)
	}
	for _, h := range st.foreignHandles[window] {
		if h.Alive() && h.Interface() == "zwlr_foreign_toplevel_handle_v1" {
			h.Send(h.NewEvent(wlrHandleEvtState).PutArray(states))
			h.Send(h.NewEvent(wlrHandleEvtDone))
		}
	}
}

// closeForeignHandle announces closure and drops the handle.
func (st *State) closeForeignHandle(h *wl.Resource) {
	if !h.Alive() {
		return
	}
	if h.Interface() == "zwlr_foreign_toplevel_handle_v1" {
		h.Send(h.NewEvent(wlrHandleEvtClosed))
	} else {
		h.Send(h.NewEvent(foreignHandleEvtClosed))
	}
}
