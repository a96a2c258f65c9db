// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/io/event"
)

// zwp_fullscreen_shell_v1.
const (
	fullscreenShellReqRelease               = 0
	fullscreenShellReqPresentSurface        = 1
	fullscreenShellReqPresentSurfaceForMode = 2

	fullscreenShellEvtCapability = 0

	modeFeedbackEvtModeSuccessful = 0
)

type fullscreenShellState struct {
	presentedWindow uint32
	// deferredFeedbacks die one dispatch cycle after their event, not
	// synchronously; destroying them inside the request handler races
	// the client's concurrent use of the object.
	deferredFeedbacks []*wl.Resource
}

func (f *fullscreenShellState) flushDeferred() {
	for _, res := range f.deferredFeedbacks {
		res.Destroy()
	}
	f.deferredFeedbacks = nil
}

// bindFullscreenShell maps whole surfaces to the output without xdg
// negotiation; a synthetic window carries them through the normal
// window pipeline.
func (st *State) bindFullscreenShell(c *wl.Client, res *wl.Resource) {
	res.Send(res.NewEvent(fullscreenShellEvtCapability).PutUint32(0))
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case fullscreenShellReqRelease:
			res.Destroy()
		case fullscreenShellReqPresentSurface:
			surfID := r.Object()
			_ = r.Uint32() // method
			_ = r.Object() // output
			if err := r.Err(); err != nil {
				return err
			}
			st.presentFullscreenSurface(c, surfID)
		case fullscreenShellReqPresentSurfaceForMode:
			surfID := r.Object()
			_ = r.Object() // output
			_ = r.Int32()  // framerate
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			st.presentFullscreenSurface(c, surfID)
			fb := c.NewResource(id, "zwp_fullscreen_shell_mode_feedback_v1", res.Version())
			fb.Send(fb.NewEvent(modeFeedbackEvtModeSuccessful))
			st.fullscreenShell.deferredFeedbacks = append(st.fullscreenShell.deferredFeedbacks, fb)
		}
		return nil
	}
}

func (st *State) presentFullscreenSurface(c *wl.Client, surfID uint32) {
	sres := c.Get(surfID)
	if sres == nil {
		return
	}
	surface, _ := sres.Data.(uint32)
	s := st.surfaces[surface]
	if s == nil {
		return
	}
	if err := s.SetRole(RoleToplevel); err != nil {
		log.Debug().Err(err).Uint32("surface", surface).Msg("fullscreen shell present refused")
		return
	}
	if st.fullscreenShell.presentedWindow != 0 {
		st.DestroyWindow(st.fullscreenShell.presentedWindow)
	}
	windowID := st.nextWindow()
	w := &Window{
		ID:         windowID,
		Surface:    surface,
		Decoration: event.DecorationServerSide,
		Fullscreen: true,
		Activated:  true,
	}
	if o := st.PrimaryOutput(); o != nil {
		w.Width, w.Height = o.Width, o.Height
	}
	st.RegisterWindow(w)
	st.fullscreenShell.presentedWindow = windowID
	st.Emit(event.WindowCreated{
		Client:          c.ID(),
		Window:          windowID,
		Surface:         surface,
		Width:           uint32(max32(w.Width, 0)),
		Height:          uint32(max32(w.Height, 0)),
		Decoration:      event.DecorationServerSide,
		FullscreenShell: true,
	})
}
