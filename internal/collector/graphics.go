package collector

import (
	"fmt"
	"strings"
)

// GraphicsContext is the active rendering context the reporter reads from.
// Implementations never render anything.
type GraphicsContext interface {
	// ShaderLanguageVersionCode returns major*100+minor, or 0 if unknown.
	ShaderLanguageVersionCode() int
	// ContextInfo returns the vendor, renderer and full version strings.
	ContextInfo() (vendor, renderer, fullVersion string)
}

// Limit is a single implementation limit of the graphics context.
type Limit struct {
	Name  string
	Value int
}

// LimitsReporter is implemented by graphics contexts that can report
// implementation limits such as GL_MAX_TEXTURE_SIZE.
type LimitsReporter interface {
	Limits() []Limit
}

// KnownLimits are the limits included in a report, in report order.
var KnownLimits = []string{
	"GL_MAX_TEXTURE_SIZE",
	"GL_MAX_TEXTURE_IMAGE_UNITS",
	"GL_MAX_COMBINED_TEXTURE_IMAGE_UNITS",
	"GL_MAX_VERTEX_ATTRIBS",
	"GL_MAX_VERTEX_UNIFORM_COMPONENTS",
	"GL_MAX_FRAGMENT_UNIFORM_COMPONENTS",
	"GL_MAX_VARYING_FLOATS",
	"GL_MAX_RENDERBUFFER_SIZE",
	"GL_MAX_SAMPLES",
	"GL_MAX_DRAW_BUFFERS",
}

// StaticGraphics is a GraphicsContext with fixed values, used when the host
// application already knows its context or when values come from config.
type StaticGraphics struct {
	Vendor          string
	Renderer        string
	Version         string
	ShadingLanguage int
	Caps            []Limit
}

func (g StaticGraphics) ShaderLanguageVersionCode() int { return g.ShadingLanguage }

func (g StaticGraphics) ContextInfo() (string, string, string) {
	return g.Vendor, g.Renderer, g.Version
}

func (g StaticGraphics) Limits() []Limit { return g.Caps }

// vendorTags maps raw vendor prefixes to the short tag used in gfx_card.
var vendorTags = []struct {
	prefix string
	tag    string
}{
	{"ATI Technologies Inc.", "ATI"},
	{"NVIDIA Corporation", "NVIDIA"},
	{"S3 Graphics", "S3"},
}

// NormalizeVendor returns the short tag for a known vendor string, or the
// vendor unchanged.
func NormalizeVendor(vendor string) string {
	for _, v := range vendorTags {
		if strings.HasPrefix(vendor, v.prefix) {
			return v.tag
		}
	}
	return vendor
}

// FormatShadingLanguageVersion turns a combined major*100+minor code into
// "<major>.<minor>", e.g. 330 -> "3.30".
func FormatShadingLanguageVersion(code int) string {
	major := code / 100
	minor := code - 100*major
	return fmt.Sprintf("%d.%d", major, minor)
}
