// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wl"
)

// RegisterGlobals advertises every supported global. The desktop gate
// hides capture and output-control globals on sandboxed platforms; the
// fullscreen-shell global sits behind its own toggle.
func (st *State) RegisterGlobals(d *wl.Display) {
	d.AddGlobal("wl_compositor", 6, st.bindCompositor)
	d.AddGlobal("wl_subcompositor", 1, st.bindSubcompositor)
	d.AddGlobal("wl_shm", 1, st.bindShm)
	d.AddGlobal("wl_seat", 9, st.bindSeat)
	d.AddGlobal("wl_output", 4, st.bindOutput)
	d.AddGlobal("wl_data_device_manager", 3, st.bindDataDeviceManager)

	d.AddGlobal("xdg_wm_base", 5, st.bindWmBase)
	d.AddGlobal("zxdg_decoration_manager_v1", 1, st.bindDecorationManager)
	d.AddGlobal("zxdg_output_manager_v1", 3, st.bindXdgOutputManager)

	d.AddGlobal("wp_viewporter", 1, st.bindViewporter)
	d.AddGlobal("wp_presentation", 1, st.bindPresentation)
	d.AddGlobal("zwp_linux_dmabuf_v1", 4, st.bindDmabuf)

	d.AddGlobal("zwp_relative_pointer_manager_v1", 1, st.bindRelativePointerManager)
	d.AddGlobal("zwp_pointer_constraints_v1", 1, st.bindPointerConstraints)
	d.AddGlobal("zwp_pointer_gestures_v1", 3, st.bindPointerGestures)
	d.AddGlobal("zwp_text_input_manager_v3", 1, st.bindTextInputManager)
	d.AddGlobal("zwp_keyboard_shortcuts_inhibit_manager_v1", 1, st.bindShortcutsInhibitManager)
	d.AddGlobal("zwp_idle_inhibit_manager_v1", 1, st.bindIdleInhibitManager)

	d.AddGlobal("wp_fractional_scale_manager_v1", 1, st.bindFractionalScaleManager)
	d.AddGlobal("wp_tearing_control_manager_v1", 1, st.bindTearingControlManager)
	d.AddGlobal("wp_fifo_manager_v1", 1, st.bindFifoManager)
	d.AddGlobal("wp_content_type_manager_v1", 1, st.bindContentTypeManager)
	d.AddGlobal("wp_alpha_modifier_v1", 1, st.bindAlphaModifier)
	d.AddGlobal("wp_cursor_shape_manager_v1", 1, st.bindCursorShapeManager)
	d.AddGlobal("wp_single_pixel_buffer_manager_v1", 1, st.bindSinglePixelBufferManager)
	d.AddGlobal("wp_security_context_manager_v1", 1, st.bindSecurityContextManager)

	d.AddGlobal("ext_idle_notifier_v1", 1, st.bindIdleNotifier)
	d.AddGlobal("ext_foreign_toplevel_list_v1", 1, st.bindForeignToplevelList)
	d.AddGlobal("ext_data_control_manager_v1", 1, st.bindDataControlManager)

	d.AddGlobal("zwlr_layer_shell_v1", 4, st.bindLayerShell)
	d.AddGlobal("zwlr_foreign_toplevel_manager_v1", 3, st.bindWlrForeignToplevelManager)
	d.AddGlobal("zwlr_virtual_pointer_manager_v1", 2, st.bindVirtualPointerManager)
	d.AddGlobal("zwp_virtual_keyboard_manager_v1", 1, st.bindVirtualKeyboardManager)

	d.AddGlobal("xdg_activation_v1", 1, st.bindActivation)
	d.AddGlobal("xdg_toplevel_drag_manager_v1", 1, st.bindToplevelDragManager)
	d.AddGlobal("xdg_system_bell_v1", 1, st.bindSystemBell)

	if st.Features.Desktop {
		d.AddGlobal("zwlr_screencopy_manager_v1", 3, st.bindScreencopyManager)
		d.AddGlobal("zwlr_gamma_control_manager_v1", 1, st.bindGammaControlManager)
		d.AddGlobal("zwlr_output_manager_v1", 4, st.bindOutputManager)
		d.AddGlobal("zwlr_output_power_manager_v1", 1, st.bindOutputPowerManager)
	}
	if st.Features.FullscreenShell {
		d.AddGlobal("zwp_fullscreen_shell_v1", 1, st.bindFullscreenShell)
	}
}
