// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Command rfbproxy runs a transparent man-in-the-middle RFB proxy that
// injects a click-counting overlay icon into every connected client's
// framebuffer.
package main

import (
	"context"
	"flag"
	"image"
	"image/color"
	"image/draw"
	_ "image/png"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/tenthirtyam/rfbproxy"
	"github.com/tenthirtyam/rfbproxy/internal/clickcounter"
	"github.com/tenthirtyam/rfbproxy/internal/proxylog"
	"github.com/tenthirtyam/rfbproxy/internal/statecore"
)

var (
	listenAddr   = flag.String("listen", ":5901", "listen on [ip]:port for VNC clients")
	upstreamAddr = flag.String("upstream", "localhost:5900", "dial this [ip]:port as the real RFB server")
	iconPath     = flag.String("icon", "", "path to a PNG image to use as the overlay icon (a default swatch is drawn if empty)")
	iconX        = flag.Uint("icon-x", 0, "overlay icon x position")
	iconY        = flag.Uint("icon-y", 0, "overlay icon y position")
	iconW        = flag.Uint("icon-w", 32, "overlay icon width, used only when -icon is empty")
	iconH        = flag.Uint("icon-h", 32, "overlay icon height, used only when -icon is empty")
)

func main() {
	flag.Parse()

	var logger rfb.Logger
	zapLogger, err := proxylog.NewFromLevel(logLevelFromEnv())
	if err != nil {
		// zap failed to build (e.g. a broken encoder config); fall back to
		// the dependency-free standard logger rather than aborting, and log
		// the fallback through it.
		standard := &rfb.StandardLogger{}
		standard.Error("zap logger unavailable, falling back to standard logger", rfb.Field{Key: "error", Value: err})
		logger = standard
	} else {
		defer func() { _ = zapLogger.Sync() }()
		logger = zapLogger
	}

	icon, err := loadIcon(*iconPath, uint16(*iconX), uint16(*iconY), uint16(*iconW), uint16(*iconH))
	if err != nil {
		logger.Error("failed to load overlay icon", rfb.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	listener, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		logger.Error("failed to listen", rfb.Field{Key: "address", Value: *listenAddr}, rfb.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	logger.Info("listening for clients", rfb.Field{Key: "address", Value: *listenAddr}, rfb.Field{Key: "upstream", Value: *upstreamAddr})

	provider := clickcounter.New(icon)
	core := statecore.New(listener, *upstreamAddr, provider, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := core.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("proxy exited", rfb.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	logger.Info("shutting down")
}

// logLevelFromEnv reads RFBPROXY_LOG_LEVEL, defaulting to "info".
func logLevelFromEnv() string {
	if level := os.Getenv("RFBPROXY_LOG_LEVEL"); level != "" {
		return level
	}
	return "info"
}

// loadIcon decodes path as a PNG and returns its RGBA bytes as an Icon at
// (x, y); if path is empty, it draws a solid-color swatch of the
// requested size instead.
func loadIcon(path string, x, y, w, h uint16) (rfb.Icon, error) {
	var rgba *image.RGBA

	if path == "" {
		rgba = image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
		draw.Draw(rgba, rgba.Bounds(), &image.Uniform{C: color.RGBA{R: 0xd0, G: 0x30, B: 0x30, A: 0xff}}, image.Point{}, draw.Src)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return rfb.Icon{}, err
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return rfb.Icon{}, err
		}
		bounds := img.Bounds()
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
		w = uint16(bounds.Dx())
		h = uint16(bounds.Dy())
	}

	return rfb.Icon{X: x, Y: y, Width: w, Height: h, RGBAData: rgba.Pix}, nil
}
