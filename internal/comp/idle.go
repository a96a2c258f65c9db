// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"time"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// ext_idle_notification_v1 events.
const (
	idleEvtIdled   = 0
	idleEvtResumed = 1
)

type idleNotification struct {
	res     *wl.Resource
	timeout time.Duration
	idled   bool
}

type idleState struct {
	notifications []*idleNotification
	lastActivity  time.Time
	inhibitors    int
}

// recordActivity resets the idle clock and resumes idled watchers.
func (i *idleState) recordActivity(now time.Time) {
	i.lastActivity = now
	for _, n := range i.notifications {
		if n.idled {
			n.idled = false
			if n.res.Alive() {
				n.res.Send(n.res.NewEvent(idleEvtResumed))
			}
		}
	}
}

// check fires idled on watchers whose timeout has elapsed. Inhibitors
// hold the clock.
func (i *idleState) check(now time.Time) {
	if i.inhibitors > 0 {
		return
	}
	idle := now.Sub(i.lastActivity)
	for _, n := range i.notifications {
		if !n.idled && n.timeout > 0 && idle >= n.timeout {
			n.idled = true
			if n.res.Alive() {
				n.res.Send(n.res.NewEvent(idleEvtIdled))
			}
		}
	}
}

// PumpIdle drives idle notifications off the tick clock.
func (st *State) PumpIdle() {
	st.idle.check(st.now())
}

func (st *State) bindIdleNotifier(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1, 2: // get_idle_notification, get_input_idle_notification
			id := r.NewID()
			timeoutMS := r.Uint32()
			_ = r.Object() // seat
			if err := r.Err(); err != nil {
				return err
			}
			nres := c.NewResource(id, "ext_idle_notification_v1", res.Version())
			n := &idleNotification{
				res:     nres,
				timeout: time.Duration(timeoutMS) * time.Millisecond,
			}
			st.idle.notifications = append(st.idle.notifications, n)
			nres.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == 0 {
					nres.Destroy()
				}
				return nil
			}
			nres.OnDestroy = func() {
				out := st.idle.notifications[:0]
				for _, o := range st.idle.notifications {
					if o != n {
						out = append(out, o)
					}
				}
				st.idle.notifications = out
			}
		}
		return nil
	}
}

// zwp_idle_inhibit_manager_v1: each inhibitor holds the idle clock
// until the inhibitor is destroyed; whether its surface is mapped is
// not tracked.
func (st *State) bindIdleInhibitManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case 0:
			res.Destroy()
		case 1: // create_inhibitor
			id := r.NewID()
			_ = r.Object() // surface
			if err := r.Err(); err != nil {
				return err
			}
			ires := c.NewResource(id, "zwp_idle_inhibitor_v1", res.Version())
			st.idle.inhibitors++
			ires.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == 0 {
					ires.Destroy()
				}
				return nil
			}
			ires.OnDestroy = func() {
				if st.idle.inhibitors > 0 {
					st.idle.inhibitors--
				}
			}
		}
		return nil
	}
}
