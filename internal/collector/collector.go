package collector

import "context"

// Display is the configured screen resolution.
type Display struct {
	Width  int
	Height int
}

// Collector gathers the facts of a hardware report. Every field either
// resolves or is left out; collection never fails.
type Collector struct {
	goos     string
	debug    bool
	graphics GraphicsContext
	memory   MemoryProbe
	firmware FirmwareProbe
	display  Display
}

// Option configures a Collector.
type Option func(*Collector)

// WithGraphics sets the rendering context queried for GL strings.
func WithGraphics(g GraphicsContext) Option {
	return func(c *Collector) { c.graphics = g }
}

// WithMemoryProbe replaces the platform RAM probe.
func WithMemoryProbe(p MemoryProbe) Option {
	return func(c *Collector) { c.memory = p }
}

// WithFirmware enables machine vendor/product facts.
func WithFirmware(p FirmwareProbe) Option {
	return func(c *Collector) { c.firmware = p }
}

// WithDisplay sets the resolution reported as video_xres/video_yres.
func WithDisplay(d Display) Option {
	return func(c *Collector) { c.display = d }
}

// WithOS overrides the operating system the flags are derived from.
func WithOS(goos string) Option {
	return func(c *Collector) { c.goos = goos }
}

// WithDebugBuild overrides the build_debug flag.
func WithDebugBuild(debug bool) Option {
	return func(c *Collector) { c.debug = debug }
}

// New returns a Collector for the running host.
func New(opts ...Option) *Collector {
	c := &Collector{
		goos:   hostOS(),
		debug:  debugBuild,
		memory: SystemMemory,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect builds a fresh fact set.
func (c *Collector) Collect(_ context.Context) *Facts {
	f := NewFacts()

	addPlatformFacts(f, c.goos)
	if c.debug {
		f.AddFlag("build_debug", true)
	}

	hasContext := c.addGraphicsFacts(f)

	f.AddInt("video_xres", c.display.Width)
	f.AddInt("video_yres", c.display.Height)

	if c.memory != nil {
		if mb := c.memory.TotalPhysicalMemoryMB(); mb > 0 {
			f.AddInt("ram_total", mb)
		}
	}

	if c.firmware != nil {
		vendor, product := c.firmware.SystemInfo()
		if vendor != "" {
			f.AddString("sys_vendor", vendor)
		}
		if product != "" {
			f.AddString("sys_product", product)
		}
	}

	if lr, ok := c.graphics.(LimitsReporter); ok && hasContext {
		for _, l := range lr.Limits() {
			f.AddInt(l.Name, l.Value)
		}
	}

	return f
}

func (c *Collector) addGraphicsFacts(f *Facts) bool {
	if c.graphics == nil {
		return false
	}
	vendor, renderer, version := c.graphics.ContextInfo()
	if vendor == "" {
		return false
	}

	if code := c.graphics.ShaderLanguageVersionCode(); code > 0 {
		f.AddString("GL_SHADING_LANGUAGE_VERSION", FormatShadingLanguageVersion(code))
	}
	f.AddString("GL_VENDOR", vendor)
	f.AddString("GL_RENDERER", renderer)
	f.AddString("GL_VERSION", version)
	f.AddString("gfx_drv_ver", "OpenGL "+vendor)
	f.AddString("gfx_card", NormalizeVendor(vendor)+" "+renderer)
	return true
}
