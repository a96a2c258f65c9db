// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"golang.org/x/sys/unix"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// zwlr_screencopy_manager_v1 / zwlr_screencopy_frame_v1.
const (
	screencopyReqCaptureOutput       = 0
	screencopyReqCaptureOutputRegion = 1
	screencopyReqDestroy             = 2

	screencopyFrameReqCopy    = 0
	screencopyFrameReqDestroy = 1

	screencopyEvtBuffer = 0
	screencopyEvtFlags  = 1
	screencopyEvtReady  = 2
	screencopyEvtFailed = 3
)

// bindScreencopyManager advertises capture frames. The core owns no
// pixels, so copy requests report failed after announcing the buffer
// parameters; platforms with a readback path intercept upstream.
func (st *State) bindScreencopyManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case screencopyReqCaptureOutput, screencopyReqCaptureOutputRegion:
			id := r.NewID()
			_ = r.Int32() // overlay_cursor
			_ = r.Object()
			if op == screencopyReqCaptureOutputRegion {
				_, _, _, _ = r.Int32(), r.Int32(), r.Int32(), r.Int32()
			}
			if err := r.Err(); err != nil {
				return err
			}
			fres := c.NewResource(id, "zwlr_screencopy_frame_v1", res.Version())
			width, height := int32(0), int32(0)
			if o := st.PrimaryOutput(); o != nil {
				width, height = o.Width, o.Height
			}
			fres.Send(fres.NewEvent(screencopyEvtBuffer).
				PutUint32(FormatXRGB8888).
				PutUint32(uint32(max32(width, 0))).
				PutUint32(uint32(max32(height, 0))).
				PutUint32(uint32(max32(width*4, 0))))
			fres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case screencopyFrameReqCopy:
					_ = r.Object() // buffer
					if err := r.Err(); err != nil {
						return err
					}
					fres.Send(fres.NewEvent(screencopyEvtFailed))
				case screencopyFrameReqDestroy:
					fres.Destroy()
				}
				return nil
			}
		case screencopyReqDestroy:
			res.Destroy()
		}
		return nil
	}
}

// zwlr_gamma_control_manager_v1.
const (
	gammaManagerReqGetGammaControl = 0
	gammaManagerReqDestroy         = 1

	gammaControlReqSetGamma = 0
	gammaControlReqDestroy  = 1

	gammaEvtGammaSize = 0
	gammaEvtFailed    = 1
)

func (st *State) bindGammaControlManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case gammaManagerReqGetGammaControl:
			id := r.NewID()
			_ = r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			gres := c.NewResource(id, "zwlr_gamma_control_v1", res.Version())
			gres.Send(gres.NewEvent(gammaEvtGammaSize).PutUint32(256))
			gres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case gammaControlReqSetGamma:
					fd := r.Fd()
					if err := r.Err(); err != nil {
						return err
					}
					// No display hardware behind the core; accept and
					// discard the ramp.
					if fd >= 0 {
						unix.Close(fd)
					}
				case gammaControlReqDestroy:
					gres.Destroy()
				}
				return nil
			}
		case gammaManagerReqDestroy:
			res.Destroy()
		}
		return nil
	}
}

// zwlr_output_manager_v1: heads mirror the output list; apply and test
// both succeed without touching state, since the platform owns the
// real display configuration.
const (
	outputMgrReqCreateConfiguration = 0
	outputMgrReqStop                = 1

	outputMgrEvtHead     = 0
	outputMgrEvtDone     = 1
	outputMgrEvtFinished = 2

	headEvtName         = 0
	headEvtDescription  = 1
	headEvtPhysicalSize = 2
	headEvtMode         = 3
	headEvtEnabled      = 4
	headEvtCurrentMode  = 5
	headEvtPosition     = 6
	headEvtTransform    = 7
	headEvtScale        = 8

	modeEvtSize      = 0
	modeEvtRefresh   = 1
	modeEvtPreferred = 2

	configEvtSucceeded = 0
)

func (st *State) bindOutputManager(c *wl.Client, res *wl.Resource) {
	serial := st.NextSerial()
	for _, o := range st.outputs {
		head := c.NewServerResource("zwlr_output_head_v1", res.Version())
		res.Send(res.NewEvent(outputMgrEvtHead).PutUint32(head.ID()))
		head.Send(head.NewEvent(headEvtName).PutString("WAWONA"))
		head.Send(head.NewEvent(headEvtDescription).PutString("Wawona virtual output"))
		head.Send(head.NewEvent(headEvtEnabled).PutInt32(1))
		mode := c.NewServerResource("zwlr_output_mode_v1", res.Version())
		head.Send(head.NewEvent(headEvtMode).PutUint32(mode.ID()))
		mode.Send(mode.NewEvent(modeEvtSize).PutInt32(o.Width).PutInt32(o.Height))
		mode.Send(mode.NewEvent(modeEvtRefresh).PutInt32(o.RefreshMHz))
		mode.Send(mode.NewEvent(modeEvtPreferred))
		head.Send(head.NewEvent(headEvtCurrentMode).PutUint32(mode.ID()))
		head.Send(head.NewEvent(headEvtPosition).PutInt32(o.X).PutInt32(o.Y))
	}
	res.Send(res.NewEvent(outputMgrEvtDone).PutUint32(serial))
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case outputMgrReqCreateConfiguration:
			id := r.NewID()
			_ = r.Uint32() // serial
			if err := r.Err(); err != nil {
				return err
			}
			cfg := c.NewResource(id, "zwlr_output_configuration_v1", res.Version())
			cfg.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case 2, 3: // apply, test
					cfg.Send(cfg.NewEvent(configEvtSucceeded))
				case 4: // destroy
					cfg.Destroy()
				}
				return nil
			}
		case outputMgrReqStop:
			res.Send(res.NewEvent(outputMgrEvtFinished))
		}
		return nil
	}
}

// zwlr_output_power_manager_v1: power mode is acknowledged and echoed.
const (
	outputPowerEvtMode = 0
)

func (st *State) bindOutputPowerManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0: // get_output_power
			id := r.NewID()
			_ = r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			pres := c.NewResource(id, "zwlr_output_power_v1", res.Version())
			pres.Send(pres.NewEvent(outputPowerEvtMode).PutUint32(1)) // on
			pres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case 0: // set_mode
					mode := r.Uint32()
					if err := r.Err(); err != nil {
						return err
					}
					pres.Send(pres.NewEvent(outputPowerEvtMode).PutUint32(mode))
				case 1:
					pres.Destroy()
				}
				return nil
			}
		case 1:
			res.Destroy()
		}
		return nil
	}
}
