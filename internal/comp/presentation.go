// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// wp_presentation / wp_presentation_feedback.
const (
	presentationReqDestroy  = 0
	presentationReqFeedback = 1

	presentationEvtClockID = 0

	feedbackEvtSyncOutput = 0
	feedbackEvtPresented  = 1
	feedbackEvtDiscarded  = 2

	presentationKindVsync = 1

	clockMonotonic uint32 = 1
)

// presentFeedback waits for the surface's next committed frame to hit
// the screen. Feedbacks registered before the commit stay parked until
// the committed flag is set; only committed feedbacks fire on present.
type presentFeedback struct {
	res       *wl.Resource
	surface   uint32
	committed bool
}

type presentationState struct {
	feedbacks []*presentFeedback
	nextSeq   uint64
}

// markCommitted arms every feedback of a just-committed surface.
func (p *presentationState) markCommitted(surface uint32) {
	for _, f := range p.feedbacks {
		if f.surface == surface {
			f.committed = true
		}
	}
}

// sendPresented fires presented on armed feedbacks and keeps the rest
// parked for a later frame.
func (p *presentationState) sendPresented(tsNS, refreshNS uint64, seq uint64) {
	remaining := p.feedbacks[:0]
	for _, f := range p.feedbacks {
		if !f.committed || !f.res.Alive() {
			if f.res.Alive() {
				remaining = append(remaining, f)
			}
			continue
		}
		sec := tsNS / 1e9
		nsec := uint32(tsNS % 1e9)
		f.res.Send(f.res.NewEvent(feedbackEvtPresented).
			PutUint32(uint32(sec >> 32)).
			PutUint32(uint32(sec)).
			PutUint32(nsec).
			PutUint32(uint32(refreshNS)).
			PutUint32(uint32(seq >> 32)).
			PutUint32(uint32(seq)).
			PutUint32(presentationKindVsync))
		// The removal hook must not fire mid-iteration; this loop
		// already rebuilds the list.
		f.res.OnDestroy = nil
		f.res.Destroy()
	}
	p.feedbacks = remaining
}

func (st *State) bindPresentation(c *wl.Client, res *wl.Resource) {
	res.Send(res.NewEvent(presentationEvtClockID).PutUint32(clockMonotonic))
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case presentationReqDestroy:
			res.Destroy()
		case presentationReqFeedback:
			sres := c.Get(r.Object())
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			fres := c.NewResource(id, "wp_presentation_feedback", res.Version())
			if sres == nil {
				fres.Send(fres.NewEvent(feedbackEvtDiscarded))
				fres.Destroy()
				return nil
			}
			surface, _ := sres.Data.(uint32)
			fb := &presentFeedback{res: fres, surface: surface}
			st.presentation.feedbacks = append(st.presentation.feedbacks, fb)
			fres.OnDestroy = func() {
				out := st.presentation.feedbacks[:0]
				for _, f := range st.presentation.feedbacks {
					if f != fb {
						out = append(out, f)
					}
				}
				st.presentation.feedbacks = out
			}
		}
		return nil
	}
}
