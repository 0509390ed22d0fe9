package main

import (
	"context"
	"fmt"

	"github.com/go-tangra/go-tangra-hwreport/internal/collector"
	"github.com/go-tangra/go-tangra-hwreport/internal/config"
	"github.com/go-tangra/go-tangra-hwreport/internal/logging"
)

// Graphics sources accepted in graphics.source.
const (
	graphicsGLXInfo = "glxinfo"
	graphicsStatic  = "static"
	graphicsNone    = "none"
)

// probeFunc queries the host graphics stack. Swapped in tests.
var probeFunc = collector.ProbeGLXInfo

// newCollector builds the fact collector described by cfg. A failing
// graphics probe leaves the report without GL facts.
func newCollector(ctx context.Context, cfg config.UserConfig) (*collector.Collector, error) {
	opts := []collector.Option{
		collector.WithDisplay(collector.Display{
			Width:  cfg.Display.Width,
			Height: cfg.Display.Height,
		}),
	}

	switch cfg.Graphics.Source {
	case graphicsGLXInfo, "":
		g, err := probeFunc(ctx)
		if err != nil {
			logging.Get("collector").Warn("no graphics context", "err", err)
			break
		}
		opts = append(opts, collector.WithGraphics(g))
	case graphicsStatic:
		opts = append(opts, collector.WithGraphics(collector.StaticGraphics{
			Vendor:          cfg.Graphics.Vendor,
			Renderer:        cfg.Graphics.Renderer,
			Version:         cfg.Graphics.Version,
			ShadingLanguage: cfg.Graphics.ShadingLanguage,
		}))
	case graphicsNone:
	default:
		return nil, fmt.Errorf("unknown graphics source %q", cfg.Graphics.Source)
	}

	if cfg.CollectFirmware {
		opts = append(opts, collector.WithFirmware(collector.DefaultFirmware()))
	}

	return collector.New(opts...), nil
}
