// SPDX-License-Identifier: Unlicense OR MIT

// Package bus carries events between the compositor core and the
// platform. Each direction is an independent bounded queue; no ordering
// is guaranteed across queues, only within one.
package bus

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ojehle/wawona/io/event"
	"github.com/ojehle/wawona/io/input"
)

// queueCap bounds each direction. The platform drains every tick; a
// full queue drops the oldest entry rather than blocking the core.
const queueCap = 1024

// Bus is the pair of queues shared by the core and platform threads.
type Bus struct {
	toPlatform *xsync.MPMCQueueOf[event.Event]
	toCore     *xsync.MPMCQueueOf[input.Event]
	dropped    *xsync.Counter
}

func New() *Bus {
	return &Bus{
		toPlatform: xsync.NewMPMCQueueOf[event.Event](queueCap),
		toCore:     xsync.NewMPMCQueueOf[input.Event](queueCap),
		dropped:    xsync.NewCounter(),
	}
}

// Post queues a compositor event for the platform.
func (b *Bus) Post(e event.Event) {
	for !b.toPlatform.TryEnqueue(e) {
		if _, ok := b.toPlatform.TryDequeue(); !ok {
			return
		}
		b.dropped.Inc()
	}
}

// PopEvent takes the next compositor event, if any. Called from the
// platform thread.
func (b *Bus) PopEvent() (event.Event, bool) {
	return b.toPlatform.TryDequeue()
}

// Inject queues a platform input event for the core.
func (b *Bus) Inject(e input.Event) {
	for !b.toCore.TryEnqueue(e) {
		if _, ok := b.toCore.TryDequeue(); !ok {
			return
		}
		b.dropped.Inc()
	}
}

// PopInput takes the next input event, if any. Called from the core
// tick.
func (b *Bus) PopInput() (input.Event, bool) {
	return b.toCore.TryDequeue()
}

// Dropped counts events discarded to overfull queues.
func (b *Bus) Dropped() int64 {
	return b.dropped.Value()
}
