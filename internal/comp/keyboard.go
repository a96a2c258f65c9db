// SPDX-License-Identifier: Unlicense OR MIT

package comp

import "time"

// Key states from wl_keyboard.
const (
	keyStateReleased uint32 = 0
	keyStatePressed  uint32 = 1
)

// InjectKey feeds one key event: xkb state advances, the key goes to
// the focused client, and modifier changes broadcast behind the same
// serial. Repeat tracking restarts on every fresh press.
func (st *State) InjectKey(code uint32, state uint32, timeMS uint32) {
	st.idle.recordActivity(st.now())
	st.seat.cleanup()
	kb := &st.seat.Keyboard

	modsChanged := kb.Mods.UpdateKey(code, state == keyStatePressed)

	if state == keyStatePressed {
		found := false
		for _, k := range kb.Pressed {
			if k == code {
				found = true
				break
			}
		}
		if !found {
			kb.Pressed = append(kb.Pressed, code)
		}
		kb.repeatKey = code
		kb.repeatStarted = st.now()
		kb.lastRepeat = time.Time{}
	} else {
		out := kb.Pressed[:0]
		for _, k := range kb.Pressed {
			if k != code {
				out = append(out, k)
			}
		}
		kb.Pressed = out
		if kb.repeatKey == code {
			kb.repeatKey = 0
			kb.repeatStarted = time.Time{}
			kb.lastRepeat = time.Time{}
		}
	}

	serial := st.NextSerial()
	if focus := kb.Focus; focus != 0 {
		st.keyboardKey(serial, timeMS, code, state, focus)
		if modsChanged {
			st.keyboardModifiers(serial, focus)
		}
	}
}

// InjectModifiers overwrites the modifier masks with platform state
// and broadcasts them.
func (st *State) InjectModifiers(depressed, latched, locked, group uint32) {
	st.seat.cleanup()
	st.seat.Keyboard.Mods.UpdateMask(depressed, latched, locked, group)
	if focus := st.seat.Keyboard.Focus; focus != 0 {
		st.keyboardModifiers(st.NextSerial(), focus)
	}
}

// keyboardFocusChanged sends leave/enter with current modifiers and
// repeat info to the old and new focus surfaces.
func (st *State) keyboardFocusChanged(old, next uint32) {
	if old != 0 {
		st.keyboardLeave(st.NextSerial(), old)
	}
	if next != 0 {
		st.keyboardEnter(st.NextSerial(), next)
	}
	// A focus change cancels key repeat: the old surface must not
	// receive synthetic repeats.
	st.seat.Keyboard.repeatKey = 0
}

// CheckKeyRepeat returns the keycode due for a synthetic repeat, if
// any. After the delay elapses one repeat fires, then one per
// 1000/rate ms until release or replacement. rate 0 disables repeat.
func (st *State) CheckKeyRepeat() (uint32, bool) {
	kb := &st.seat.Keyboard
	if kb.RepeatRate == 0 || kb.repeatKey == 0 || kb.repeatStarted.IsZero() {
		return 0, false
	}
	now := st.now()
	if now.Sub(kb.repeatStarted) < time.Duration(kb.RepeatDelay)*time.Millisecond {
		return 0, false
	}
	interval := time.Second / time.Duration(kb.RepeatRate)
	if kb.lastRepeat.IsZero() || now.Sub(kb.lastRepeat) >= interval {
		kb.lastRepeat = now
		return kb.repeatKey, true
	}
	return 0, false
}

// PumpKeyRepeat emits due repeats to the focused surface. Called each
// tick.
func (st *State) PumpKeyRepeat(timeMS uint32) {
	key, ok := st.CheckKeyRepeat()
	if !ok {
		return
	}
	if focus := st.seat.Keyboard.Focus; focus != 0 {
		st.keyboardKey(st.NextSerial(), timeMS, key, keyStatePressed, focus)
	}
}
