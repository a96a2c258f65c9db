// SPDX-License-Identifier: Unlicense OR MIT

// Package xkb serves keymaps to clients and tracks modifier state.
//
// Keymap compilation proper is a platform concern; the core only needs
// to hand each wl_keyboard a keymap file and keep the four modifier
// masks current. A built-in minimal US keymap backs seats for which the
// platform never supplied one.
package xkb

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// KeymapFormat codes from wl_keyboard.
const (
	FormatNoKeymap = 0
	FormatXkbV1    = 1
)

// Modifier mask bits of the minimal keymap, matching its virtual
// modifier order.
const (
	ModShift uint32 = 1 << 0
	ModCaps  uint32 = 1 << 1
	ModCtrl  uint32 = 1 << 2
	ModAlt   uint32 = 1 << 3
	ModLogo  uint32 = 1 << 6
)

// Evdev keycodes the minimal state machine interprets.
const (
	keyLeftShift  = 42
	keyRightShift = 54
	keyLeftCtrl   = 29
	keyRightCtrl  = 97
	keyLeftAlt    = 56
	keyRightAlt   = 100
	keyLeftLogo   = 125
	keyRightLogo  = 126
	keyCapsLock   = 58
)

// MinimalKeymap is a complete xkb_keymap source for a plain US layout.
// It is served when no platform keymap exists, so clients that mmap the
// fd always find a parseable map.
const MinimalKeymap = `xkb_keymap {
	xkb_keycodes  { include "evdev+aliases(qwerty)" };
	xkb_types     { include "complete" };
	xkb_compat    { include "complete" };
	xkb_symbols   { include "pc+us+inet(evdev)" };
	xkb_geometry  { include "pc(pc105)" };
};
`

// Keymap is an mmap-able keymap backed by a sealed memfd.
type Keymap struct {
	file *os.File
	size uint32
}

// NewKeymap writes src into a sealed memfd.
func NewKeymap(src string) (*Keymap, error) {
	fd, err := unix.MemfdCreate("wawona-keymap", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, errors.Wrap(err, "xkb: memfd_create")
	}
	f := os.NewFile(uintptr(fd), "wawona-keymap")
	if _, err := f.WriteString(src); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "xkb: write keymap")
	}
	if _, err := unix.FcntlInt(f.Fd(), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK|unix.F_SEAL_GROW|unix.F_SEAL_WRITE); err != nil {
		// Sealing is best effort; some filesystems refuse it.
		_ = err
	}
	return &Keymap{file: f, size: uint32(len(src))}, nil
}

func (k *Keymap) Fd() int      { return int(k.file.Fd()) }
func (k *Keymap) Size() uint32 { return k.size }

func (k *Keymap) Close() error { return k.file.Close() }

// State is the minimal modifier state machine: it derives the four
// wl_keyboard modifier masks from raw evdev keycodes.
type State struct {
	Depressed uint32
	Latched   uint32
	Locked    uint32
	Group     uint32
}

// UpdateKey feeds one key transition and reports whether any of the
// masks changed.
func (s *State) UpdateKey(code uint32, pressed bool) bool {
	var bit uint32
	switch code {
	case keyLeftShift, keyRightShift:
		bit = ModShift
	case keyLeftCtrl, keyRightCtrl:
		bit = ModCtrl
	case keyLeftAlt, keyRightAlt:
		bit = ModAlt
	case keyLeftLogo, keyRightLogo:
		bit = ModLogo
	case keyCapsLock:
		if pressed {
			s.Locked ^= ModCaps
			return true
		}
		return false
	default:
		return false
	}
	old := s.Depressed
	if pressed {
		s.Depressed |= bit
	} else {
		s.Depressed &^= bit
	}
	return s.Depressed != old
}

// UpdateMask overwrites the masks with platform-provided state.
func (s *State) UpdateMask(depressed, latched, locked, group uint32) {
	s.Depressed = depressed
	s.Latched = latched
	s.Locked = locked
	s.Group = group
}

// Serialize returns the masks in wl_keyboard.modifiers order.
func (s *State) Serialize() (depressed, latched, locked, group uint32) {
	return s.Depressed, s.Latched, s.Locked, s.Group
}
