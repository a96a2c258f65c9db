// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/io/event"
)

// xdg_wm_base requests, events and errors.
const (
	wmBaseReqDestroy          = 0
	wmBaseReqCreatePositioner = 1
	wmBaseReqGetXdgSurface    = 2
	wmBaseReqPong             = 3

	wmBaseEvtPing = 0

	wmBaseErrRole                = 0
	wmBaseErrInvalidPopupParent  = 3
	wmBaseErrInvalidSurfaceState = 4
)

// xdg_positioner requests.
const (
	positionerReqDestroy                 = 0
	positionerReqSetSize                 = 1
	positionerReqSetAnchorRect           = 2
	positionerReqSetAnchor               = 3
	positionerReqSetGravity              = 4
	positionerReqSetConstraintAdjustment = 5
	positionerReqSetOffset               = 6
	positionerReqSetReactive             = 7
)

// xdg_surface requests and events.
const (
	xdgSurfaceReqDestroy           = 0
	xdgSurfaceReqGetToplevel       = 1
	xdgSurfaceReqGetPopup          = 2
	xdgSurfaceReqSetWindowGeometry = 3
	xdgSurfaceReqAckConfigure      = 4

	xdgSurfaceEvtConfigure = 0
)

// xdg_toplevel requests and events.
const (
	toplevelReqDestroy         = 0
	toplevelReqSetParent       = 1
	toplevelReqSetTitle        = 2
	toplevelReqSetAppID        = 3
	toplevelReqShowWindowMenu  = 4
	toplevelReqMove            = 5
	toplevelReqResize          = 6
	toplevelReqSetMaxSize      = 7
	toplevelReqSetMinSize      = 8
	toplevelReqSetMaximized    = 9
	toplevelReqUnsetMaximized  = 10
	toplevelReqSetFullscreen   = 11
	toplevelReqUnsetFullscreen = 12
	toplevelReqSetMinimized    = 13

	toplevelEvtConfigure      = 0
	toplevelEvtClose          = 1
	toplevelEvtWmCapabilities = 3
)

// xdg_popup requests and events.
const (
	popupReqDestroy    = 0
	popupReqGrab       = 1
	popupReqReposition = 2

	popupEvtConfigure    = 0
	popupEvtPopupDone    = 1
	popupEvtRepositioned = 2
)

func (st *State) bindWmBase(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case wmBaseReqDestroy:
			res.Destroy()
		case wmBaseReqCreatePositioner:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			pres := c.NewResource(id, "xdg_positioner", res.Version())
			key := xdgKey{c.ID(), id}
			st.xdg.positioners[key] = &Positioner{}
			pres.Dispatch = st.dispatchPositioner(pres, key)
			pres.OnDestroy = func() { delete(st.xdg.positioners, key) }
		case wmBaseReqGetXdgSurface:
			id := r.NewID()
			surfRes := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			if surfRes == nil {
				c.PostError(res, wmBaseErrInvalidSurfaceState, "get_xdg_surface on dead surface")
				return nil
			}
			surface, _ := surfRes.Data.(uint32)
			if s := st.surfaces[surface]; s != nil && s.Current.BufferID != 0 {
				c.PostError(res, wmBaseErrInvalidSurfaceState, "surface already has a buffer")
				return nil
			}
			xres := c.NewResource(id, "xdg_surface", res.Version())
			key := xdgKey{c.ID(), id}
			st.xdg.surfaces[key] = &XdgSurfaceData{Surface: surface, Res: xres}
			xres.Dispatch = st.dispatchXdgSurface(xres, key)
			xres.OnDestroy = func() { delete(st.xdg.surfaces, key) }
		case wmBaseReqPong:
			_ = r.Uint32()
			return r.Err()
		}
		return nil
	}
}

func (st *State) dispatchPositioner(res *wl.Resource, key xdgKey) func(uint16, *wire.Reader) error {
	return func(op uint16, r *wire.Reader) error {
		p := st.xdg.positioners[key]
		if p == nil {
			return nil
		}
		switch op {
		case positionerReqDestroy:
			// Destroy goes through the resource's OnDestroy hook.
			res.Destroy()
		case positionerReqSetSize:
			p.Width, p.Height = r.Int32(), r.Int32()
		case positionerReqSetAnchorRect:
			p.AnchorRect = Rect{X: r.Int32(), Y: r.Int32(), Width: r.Int32(), Height: r.Int32()}
		case positionerReqSetAnchor:
			p.Anchor = r.Uint32()
		case positionerReqSetGravity:
			p.Gravity = r.Uint32()
		case positionerReqSetConstraintAdjustment:
			p.Adjustment = r.Uint32()
		case positionerReqSetOffset:
			p.OffsetX, p.OffsetY = r.Int32(), r.Int32()
		case positionerReqSetReactive:
			p.Reactive = true
		}
		return r.Err()
	}
}

func (st *State) dispatchXdgSurface(res *wl.Resource, key xdgKey) func(uint16, *wire.Reader) error {
	c := res.Client()
	return func(op uint16, r *wire.Reader) error {
		data := st.xdg.surfaces[key]
		if data == nil {
			log.Debug().Uint32("xdg_surface", key.id).Msg("request on destroyed xdg_surface")
			return nil
		}
		switch op {
		case xdgSurfaceReqDestroy:
			res.Destroy()
		case xdgSurfaceReqGetToplevel:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			st.createToplevel(c, res, key, id)
		case xdgSurfaceReqGetPopup:
			id := r.NewID()
			parentID := r.Object()
			positionerID := r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			st.createPopup(c, res, key, id, parentID, positionerID)
		case xdgSurfaceReqSetWindowGeometry:
			g := Rect{X: r.Int32(), Y: r.Int32(), Width: r.Int32(), Height: r.Int32()}
			if err := r.Err(); err != nil {
				return err
			}
			data.Geometry = &g
			data.HasGeometry = true
		case xdgSurfaceReqAckConfigure:
			serial := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			st.AckConfigure(c.ID(), key.id, serial)
		}
		return nil
	}
}

// createToplevel mints the window, sends the initial configure pair
// (activated, sized to the primary output in logical pixels) and emits
// WindowCreated for the platform.
func (st *State) createToplevel(c *wl.Client, xres *wl.Resource, key xdgKey, id uint32) {
	data := st.xdg.surfaces[key]
	s := st.surfaces[data.Surface]
	if s == nil {
		return
	}
	if err := s.SetRole(RoleToplevel); err != nil {
		c.PostError(xres, wmBaseErrRole, err.Error())
		return
	}

	windowID := st.nextWindow()
	w := &Window{
		ID:         windowID,
		Surface:    data.Surface,
		Title:      "",
		Width:      800,
		Height:     600,
		Decoration: st.defaultDecoration(),
		Activated:  true,
	}
	var initW, initH int32
	scale := 1.0
	if o := st.PrimaryOutput(); o != nil {
		initW, initH = o.Width, o.Height
		if o.Scale > 0 {
			scale = o.Scale
		}
		w.Width, w.Height = initW, initH
	}
	data.Window = windowID

	tres := c.NewResource(id, "xdg_toplevel", xres.Version())
	tkey := xdgKey{c.ID(), id}
	t := &ToplevelData{
		Window:     windowID,
		Surface:    data.Surface,
		XdgSurface: key.id,
		Res:        tres,
		Activated:  true,
	}
	st.xdg.toplevels[tkey] = t
	tres.Dispatch = st.dispatchToplevel(tres, tkey)
	tres.OnDestroy = func() {
		delete(st.xdg.toplevels, tkey)
		delete(st.decorations, tkey)
		if st.xdg.surfaces[key] != nil {
			st.xdg.surfaces[key].Window = 0
		}
		st.DestroyWindow(windowID)
	}

	st.RegisterWindow(w)

	if tres.Version() >= 5 {
		var caps []byte
		for _, v := range []uint32{1, 2, 3, 4} { // window_menu, maximize, fullscreen, minimize
			caps = append(caps, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		}
		tres.Send(tres.NewEvent(toplevelEvtWmCapabilities).PutArray(caps))
	}

	logicalW := int32(float64(initW) / scale)
	logicalH := int32(float64(initH) / scale)
	serial := st.NextSerial()
	var states []byte
	states = append(states,
		byte(toplevelStateActivated), byte(toplevelStateActivated>>8),
		byte(toplevelStateActivated>>16), byte(toplevelStateActivated>>24))
	tres.Send(tres.NewEvent(toplevelEvtConfigure).
		PutInt32(logicalW).
		PutInt32(logicalH).
		PutArray(states))
	xres.Send(xres.NewEvent(xdgSurfaceEvtConfigure).PutUint32(serial))
	t.PendingSerial = serial

	log.Info().
		Uint32("window", windowID).
		Uint32("surface", data.Surface).
		Int32("w", initW).
		Int32("h", initH).
		Msg("toplevel created")

	st.Emit(event.WindowCreated{
		Client:          c.ID(),
		Window:          windowID,
		Surface:         data.Surface,
		Title:           "",
		Width:           uint32(max32(initW, 0)),
		Height:          uint32(max32(initH, 0)),
		Decoration:      st.defaultDecoration(),
		FullscreenShell: st.defaultDecoration() == event.DecorationServerSide,
	})
	st.announceForeignToplevel(windowID)
}

func (st *State) dispatchToplevel(res *wl.Resource, key xdgKey) func(uint16, *wire.Reader) error {
	c := res.Client()
	return func(op uint16, r *wire.Reader) error {
		t := st.xdg.toplevels[key]
		if t == nil {
			return nil
		}
		switch op {
		case toplevelReqDestroy:
			res.Destroy()
		case toplevelReqSetParent:
			_ = r.Object()
			return r.Err()
		case toplevelReqSetTitle:
			title := r.String()
			if err := r.Err(); err != nil {
				return err
			}
			t.Title = title
			st.SetWindowTitle(t.Window, title)
		case toplevelReqSetAppID:
			appID := r.String()
			if err := r.Err(); err != nil {
				return err
			}
			t.AppID = appID
			if w := st.windows[t.Window]; w != nil {
				w.AppID = appID
			}
		case toplevelReqShowWindowMenu:
			_ = r.Object()
			_ = r.Uint32()
			_, _ = r.Int32(), r.Int32()
			return r.Err()
		case toplevelReqMove:
			_ = r.Object()
			serial := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			st.Emit(event.WindowMoveRequested{Window: t.Window, Seat: 0, Serial: serial})
		case toplevelReqResize:
			_ = r.Object()
			serial := r.Uint32()
			edges := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			if w := st.windows[t.Window]; w != nil {
				w.Resizing = true
			}
			st.Emit(event.WindowResizeRequested{Window: t.Window, Seat: 0, Serial: serial, Edges: edges})
		case toplevelReqSetMaxSize:
			t.MaxW, t.MaxH = r.Int32(), r.Int32()
			return r.Err()
		case toplevelReqSetMinSize:
			t.MinW, t.MinH = r.Int32(), r.Int32()
			return r.Err()
		case toplevelReqSetMaximized:
			st.SetMaximized(c.ID(), key.id, true)
		case toplevelReqUnsetMaximized:
			st.SetMaximized(c.ID(), key.id, false)
		case toplevelReqSetFullscreen:
			_ = r.Object() // output hint; single output
			if err := r.Err(); err != nil {
				return err
			}
			st.SetFullscreen(c.ID(), key.id, true)
		case toplevelReqUnsetFullscreen:
			st.SetFullscreen(c.ID(), key.id, false)
		case toplevelReqSetMinimized:
			st.SetWindowMinimized(t.Window, true)
		}
		return nil
	}
}

// createPopup computes the popup rect from the positioner, creates its
// window and sends the initial configure pair.
func (st *State) createPopup(c *wl.Client, xres *wl.Resource, key xdgKey, id uint32, parentID, positionerID uint32) {
	data := st.xdg.surfaces[key]
	s := st.surfaces[data.Surface]
	if s == nil {
		return
	}
	if err := s.SetRole(RolePopup); err != nil {
		c.PostError(xres, wmBaseErrRole, err.Error())
		return
	}

	pos := Positioner{Width: 1, Height: 1}
	if p, ok := st.xdg.positioners[xdgKey{c.ID(), positionerID}]; ok {
		pos = *p
	}

	// The parent argument is the parent's xdg_surface; resolve it to
	// a window id for the platform.
	parentWindow := uint32(0)
	if pres := c.Get(parentID); pres != nil {
		for _, xs := range st.xdg.surfaces {
			if xs.Res == pres {
				parentWindow = xs.Window
			}
		}
	}

	bounds := Rect{}
	if o := st.PrimaryOutput(); o != nil {
		bounds = Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
	}
	px, py := pos.Position(bounds)

	windowID := st.nextWindow()
	data.Window = windowID
	st.surfaceToWindow[data.Surface] = windowID

	popRes := c.NewResource(id, "xdg_popup", xres.Version())
	pkey := xdgKey{c.ID(), id}
	p := &PopupData{
		Window:     windowID,
		Surface:    data.Surface,
		XdgSurface: key.id,
		Res:        popRes,
		Parent:     parentWindow,
		Geometry:   Rect{X: px, Y: py, Width: pos.Width, Height: pos.Height},
	}
	st.xdg.popups[pkey] = p
	popRes.Dispatch = st.dispatchPopup(popRes, pkey)
	popRes.OnDestroy = func() {
		if data := st.xdg.popups[pkey]; data != nil {
			delete(st.xdg.popups, pkey)
			delete(st.surfaceToWindow, data.Surface)
			grabs := st.popupGrabs[:0]
			for _, g := range st.popupGrabs {
				if g.client != c.ID() || g.popup != pkey.id {
					grabs = append(grabs, g)
				}
			}
			st.popupGrabs = grabs
			st.Emit(event.WindowDestroyed{Window: data.Window})
			st.MarkSceneDirty()
		}
	}

	// The popup surface enters the primary output, through each of the
	// client's bindings of it.
	if s.Res.Alive() {
		if o := st.PrimaryOutput(); o != nil {
			for _, b := range o.bindings {
				if b.Alive() && b.Client() == s.Res.Client() {
					s.Res.Send(s.Res.NewEvent(surfaceEvtEnter).PutUint32(b.ID()))
				}
			}
		}
	}

	st.Emit(event.PopupCreated{
		Client:  c.ID(),
		Window:  windowID,
		Surface: data.Surface,
		Parent:  parentWindow,
		X:       px,
		Y:       py,
		Width:   uint32(max32(pos.Width, 1)),
		Height:  uint32(max32(pos.Height, 1)),
	})

	serial := st.NextSerial()
	popRes.Send(popRes.NewEvent(popupEvtConfigure).
		PutInt32(px).
		PutInt32(py).
		PutInt32(pos.Width).
		PutInt32(pos.Height))
	xres.Send(xres.NewEvent(xdgSurfaceEvtConfigure).PutUint32(serial))
	st.MarkSceneDirty()

	log.Debug().
		Uint32("window", windowID).
		Uint32("surface", data.Surface).
		Int32("x", px).
		Int32("y", py).
		Msg("popup created")
}

func (st *State) dispatchPopup(res *wl.Resource, key xdgKey) func(uint16, *wire.Reader) error {
	c := res.Client()
	return func(op uint16, r *wire.Reader) error {
		p := st.xdg.popups[key]
		if p == nil {
			return nil
		}
		switch op {
		case popupReqDestroy:
			res.Destroy()
		case popupReqGrab:
			_ = r.Object() // seat
			_ = r.Uint32() // serial; freshness is not enforced
			if err := r.Err(); err != nil {
				return err
			}
			p.Grabbed = true
			for _, g := range st.popupGrabs {
				if g.client == c.ID() && g.popup == key.id {
					return nil
				}
			}
			st.popupGrabs = append(st.popupGrabs, popupGrab{client: c.ID(), popup: key.id})
		case popupReqReposition:
			positionerID := r.Object()
			token := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			pos := Positioner{Width: p.Geometry.Width, Height: p.Geometry.Height}
			if pd, ok := st.xdg.positioners[xdgKey{c.ID(), positionerID}]; ok {
				pos = *pd
			}
			bounds := Rect{}
			if o := st.PrimaryOutput(); o != nil {
				bounds = Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
			}
			px, py := pos.Position(bounds)
			p.Geometry = Rect{X: px, Y: py, Width: pos.Width, Height: pos.Height}
			p.RepositionToken = token

			st.Emit(event.PopupRepositioned{
				Window: p.Window,
				X:      px,
				Y:      py,
				Width:  uint32(max32(pos.Width, 0)),
				Height: uint32(max32(pos.Height, 0)),
			})
			res.Send(res.NewEvent(popupEvtRepositioned).PutUint32(token))
			res.Send(res.NewEvent(popupEvtConfigure).
				PutInt32(px).
				PutInt32(py).
				PutInt32(pos.Width).
				PutInt32(pos.Height))
			if xs := st.xdg.surfaces[xdgKey{c.ID(), p.XdgSurface}]; xs != nil && xs.Res.Alive() {
				xs.Res.Send(xs.Res.NewEvent(xdgSurfaceEvtConfigure).PutUint32(st.NextSerial()))
			}
			st.MarkSceneDirty()
		}
		return nil
	}
}

// SendClose asks a toplevel's client to close the window.
func (st *State) SendClose(window uint32) {
	_, t := st.xdg.toplevelForWindow(window)
	if t != nil && t.Res.Alive() {
		t.Res.Send(t.Res.NewEvent(toplevelEvtClose))
	}
	st.Emit(event.WindowCloseRequested{Window: window})
}
