// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// ProcessEvents runs one cooperative tick: drain the platform input
// queue, accept and dispatch ready socket events, pump timers, rebuild
// the scene when dirty, move core events to the platform queue and
// flush client sockets. It never blocks.
func (c *Compositor) ProcessEvents() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return false
	}

	for {
		ev, ok := c.bus.PopInput()
		if !ok {
			break
		}
		c.state.ProcessInput(ev)
	}

	c.display.Accept()

	for _, client := range c.display.Clients() {
		conn := client.Conn()
		if conn == nil {
			continue
		}
		alive, err := conn.Read()
		if err != nil || !alive {
			c.display.DisconnectClient(client)
			continue
		}
		for {
			msg, ok := conn.Next()
			if !ok {
				break
			}
			if err := client.DispatchRaw(msg); err != nil {
				log.Debug().Err(err).Uint64("client", client.ID()).Msg("malformed request")
				c.display.DisconnectClient(client)
				break
			}
			if client.Fatal() {
				// Flush the posted error, then cut the connection.
				_ = client.Flush()
				c.display.DisconnectClient(client)
				break
			}
		}
	}

	now := uint32(time.Now().UnixMilli())
	c.state.PumpKeyRepeat(now)
	c.state.PumpIdle()

	if c.state.SceneDirty() {
		c.state.BuildScene()
	}

	for _, ev := range c.state.DrainEvents() {
		c.collectBuffer(ev)
		c.bus.Post(ev)
	}

	for _, client := range c.display.Clients() {
		if err := client.Flush(); err != nil {
			c.display.DisconnectClient(client)
		}
	}
	return true
}

// Wait blocks until any socket is readable or the timeout passes, so
// headless embedders can idle without spinning.
func (c *Compositor) Wait(timeout time.Duration) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	fds := c.display.PollFds()
	c.mu.Unlock()

	pollFds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pollFds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}
	_, _ = unix.Poll(pollFds, int(timeout.Milliseconds()))
}
