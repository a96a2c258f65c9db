// SPDX-License-Identifier: Unlicense OR MIT

// Command wawona runs the compositor core headless: clients can
// connect and drive the full protocol surface, while frame presents
// are simulated at the configured refresh rate. Useful for protocol
// testing without a platform renderer.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ojehle/wawona/app"
	"github.com/ojehle/wawona/internal/comp"
)

func main() {
	var (
		socketName      string
		width, height   uint32
		scale           float64
		refreshMHz      uint32
		desktop         bool
		fullscreenShell bool
		logLevel        string
	)

	root := &cobra.Command{
		Use:   "wawona",
		Short: "Wawona Wayland compositor core, headless",
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

			c := app.New(app.Config{
				SocketName:   socketName,
				OutputWidth:  width,
				OutputHeight: height,
				Scale:        scale,
				RefreshMHz:   refreshMHz,
				Features: comp.Features{
					Desktop:         desktop,
					FullscreenShell: fullscreenShell,
				},
			})
			if err := c.Start(); err != nil {
				return err
			}
			defer c.Stop()
			log.Info().Str("socket", c.SocketPath()).Msg("ready")

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

			frame := time.Second
			if refreshMHz > 0 {
				frame = time.Duration(float64(time.Second) * 1000 / float64(refreshMHz))
			}
			ticker := time.NewTicker(frame)
			defer ticker.Stop()

			var seq uint64
			for {
				select {
				case <-sigc:
					return nil
				case t := <-ticker.C:
					seq++
					c.NotifyFramePresented(0, 0, uint64(t.UnixNano()), uint64(frame.Nanoseconds()), seq)
					c.ProcessEvents()
					for {
						if _, ok := c.PopWindowEvent(); !ok {
							break
						}
					}
					for {
						if _, ok := c.PopPendingBuffer(); !ok {
							break
						}
					}
				default:
					c.ProcessEvents()
					c.Wait(frame / 4)
				}
			}
		},
	}

	root.Flags().StringVar(&socketName, "socket", app.DefaultSocket, "wayland socket name")
	root.Flags().Uint32Var(&width, "width", 1920, "output width in pixels")
	root.Flags().Uint32Var(&height, "height", 1080, "output height in pixels")
	root.Flags().Float64Var(&scale, "scale", 1.0, "output scale factor")
	root.Flags().Uint32Var(&refreshMHz, "refresh", 60000, "output refresh rate in mHz")
	root.Flags().BoolVar(&desktop, "desktop", false, "advertise desktop capture and output-control globals")
	root.Flags().BoolVar(&fullscreenShell, "fullscreen-shell", false, "advertise zwp_fullscreen_shell_v1")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}
}
