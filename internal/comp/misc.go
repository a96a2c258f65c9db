// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/io/event"
)

// wp_fractional_scale_manager_v1: the preferred scale is the output
// scale in 1/120ths.
func (st *State) bindFractionalScaleManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // get_fractional_scale
			id := r.NewID()
			sres := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			if sres == nil {
				return nil
			}
			surface, _ := sres.Data.(uint32)
			fres := c.NewResource(id, "wp_fractional_scale_v1", res.Version())
			st.fractionalScale[surface] = fres
			scale := 1.0
			if o := st.PrimaryOutput(); o != nil && o.Scale > 0 {
				scale = o.Scale
			}
			fres.Send(fres.NewEvent(0).PutUint32(uint32(scale * 120)))
			fres.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == 0 {
					fres.Destroy()
				}
				return nil
			}
			fres.OnDestroy = func() {
				if st.fractionalScale[surface] == fres {
					delete(st.fractionalScale, surface)
				}
			}
		}
		return nil
	}
}

// wp_tearing_control_manager_v1 stores the per-surface presentation
// hint; the platform may honor it.
func (st *State) bindTearingControlManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // get_tearing_control
			id := r.NewID()
			sres := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			if sres == nil {
				return nil
			}
			surface, _ := sres.Data.(uint32)
			tres := c.NewResource(id, "wp_tearing_control_v1", res.Version())
			tres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case 0: // set_presentation_hint
					hint := r.Uint32()
					if err := r.Err(); err != nil {
						return err
					}
					st.tearingHints[surface] = hint
				case 1:
					tres.Destroy()
				}
				return nil
			}
			tres.OnDestroy = func() { delete(st.tearingHints, surface) }
		}
		return nil
	}
}

// wp_fifo_manager_v1: barriers degrade to no-ops under a mailbox
// presentation model; requests are accepted for protocol conformance.
func (st *State) bindFifoManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // get_fifo
			id := r.NewID()
			_ = r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			fres := c.NewResource(id, "wp_fifo_v1", res.Version())
			fres.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == 2 { // destroy
					fres.Destroy()
				}
				return nil
			}
		}
		return nil
	}
}

// wp_content_type_manager_v1 records the client's content hint.
func (st *State) bindContentTypeManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // get_surface_content_type
			id := r.NewID()
			sres := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			if sres == nil {
				return nil
			}
			surface, _ := sres.Data.(uint32)
			tres := c.NewResource(id, "wp_content_type_v1", res.Version())
			tres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case 0:
					tres.Destroy()
				case 1: // set_content_type
					ct := r.Uint32()
					if err := r.Err(); err != nil {
						return err
					}
					st.contentTypes[surface] = ct
				}
				return nil
			}
			tres.OnDestroy = func() { delete(st.contentTypes, surface) }
		}
		return nil
	}
}

// wp_alpha_modifier_v1 scales a surface's alpha in the scene.
func (st *State) bindAlphaModifier(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // get_surface
			id := r.NewID()
			sres := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			if sres == nil {
				return nil
			}
			surface, _ := sres.Data.(uint32)
			ares := c.NewResource(id, "wp_alpha_modifier_surface_v1", res.Version())
			ares.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case 0:
					ares.Destroy()
				case 1: // set_multiplier
					factor := r.Uint32()
					if err := r.Err(); err != nil {
						return err
					}
					st.alpha[surface] = float64(factor) / float64(^uint32(0))
					st.MarkSceneDirty()
				}
				return nil
			}
			ares.OnDestroy = func() {
				delete(st.alpha, surface)
				st.MarkSceneDirty()
			}
		}
		return nil
	}
}

// wp_single_pixel_buffer_manager_v1 mints 1x1 solid-color buffers.
func (st *State) bindSinglePixelBufferManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // create_u32_rgba_buffer
			id := r.NewID()
			red := r.Uint32()
			green := r.Uint32()
			blue := r.Uint32()
			alpha := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			bres := c.NewResource(id, "wl_buffer", 1)
			st.registerBufferResource(bres, BufferRef{
				Kind:  BufferSinglePixel,
				Pixel: PixelData{R: red, G: green, B: blue, A: alpha},
			})
		}
		return nil
	}
}

// zwp_text_input_manager_v3: text inputs bind and stay alive until
// destroyed; no enter/leave or composition events are sent to them.
func (st *State) bindTextInputManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // get_text_input
			id := r.NewID()
			_ = r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			tres := c.NewResource(id, "zwp_text_input_v3", res.Version())
			tres.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == 0 {
					tres.Destroy()
				}
				return nil
			}
		}
		return nil
	}
}

// zwp_keyboard_shortcuts_inhibit_manager_v1 records per-surface
// inhibitors and reports them active immediately.
func (st *State) bindShortcutsInhibitManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // inhibit_shortcuts
			id := r.NewID()
			_ = r.Object() // surface
			_ = r.Object() // seat
			if err := r.Err(); err != nil {
				return err
			}
			ires := c.NewResource(id, "zwp_keyboard_shortcuts_inhibitor_v1", res.Version())
			ires.Send(ires.NewEvent(0)) // active
			ires.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == 0 {
					ires.Destroy()
				}
				return nil
			}
		}
		return nil
	}
}

// wp_security_context_manager_v1: a context records the sandbox
// engine, app id and instance id and logs them on commit. The listen
// fd is not accepted on; both fds are closed when the context dies.
func (st *State) bindSecurityContextManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // create_listener
			id := r.NewID()
			listenFd := r.Fd()
			closeFd := r.Fd()
			if err := r.Err(); err != nil {
				return err
			}
			sres := c.NewResource(id, "wp_security_context_v1", res.Version())
			ctx := &securityContext{
				listenFd: listenFd,
				closeFd:  closeFd,
				instance: uuid.NewString(),
			}
			sres.Data = ctx
			sres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case 0:
					sres.Destroy()
				case 1:
					ctx.engine = r.String()
				case 2:
					ctx.appID = r.String()
				case 3:
					ctx.instance = r.String()
				case 4: // commit
					log.Info().
						Str("engine", ctx.engine).
						Str("app_id", ctx.appID).
						Str("instance", ctx.instance).
						Msg("security context committed")
				}
				return r.Err()
			}
			sres.OnDestroy = func() {
				if ctx.listenFd >= 0 {
					unix.Close(ctx.listenFd)
				}
				if ctx.closeFd >= 0 {
					unix.Close(ctx.closeFd)
				}
			}
		}
		return nil
	}
}

type securityContext struct {
	listenFd int
	closeFd  int
	engine   string
	appID    string
	instance string
}

type activationToken struct {
	serial  uint32
	surface uint32
	appID   string
}

// xdg_activation_v1: tokens are minted as uuids; activate resolves the
// surface to a window and forwards the request to the platform.
func (st *State) bindActivation(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // get_activation_token
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			tres := c.NewResource(id, "xdg_activation_token_v1", res.Version())
			tok := &activationToken{}
			tres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case 0: // set_serial
					tok.serial = r.Uint32()
					_ = r.Object()
				case 1: // set_app_id
					tok.appID = r.String()
				case 2: // set_surface
					if sres := c.Get(r.Object()); sres != nil {
						tok.surface, _ = sres.Data.(uint32)
					}
				case 3: // commit
					token := uuid.NewString()
					st.activationTokens[token] = *tok
					tres.Send(tres.NewEvent(0).PutString(token))
				case 4:
					tres.Destroy()
				}
				return r.Err()
			}
		case 2: // activate
			token := r.String()
			sres := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			delete(st.activationTokens, token)
			if sres == nil {
				return nil
			}
			surface, _ := sres.Data.(uint32)
			if wid, ok := st.surfaceToWindow[surface]; ok {
				st.Emit(event.WindowActivationRequested{Window: wid})
			}
		}
		return nil
	}
}

// xdg_system_bell_v1 forwards the ring to the platform.
func (st *State) bindSystemBell(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // ring
			surfID := r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			surface := uint32(0)
			if sres := c.Get(surfID); sres != nil {
				surface, _ = sres.Data.(uint32)
			}
			st.Emit(event.SystemBell{Client: c.ID(), Surface: surface})
		}
		return nil
	}
}
