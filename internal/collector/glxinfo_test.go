package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const glxinfoSample = `name of display: :0
display: :0  screen: 0
direct rendering: Yes
Extended renderer info (GLX_MESA_query_renderer):
    Vendor: Intel (0x8086)
    Device: Mesa Intel(R) UHD Graphics 620 (KBL GT2) (0x5917)
OpenGL vendor string: Intel
OpenGL renderer string: Mesa Intel(R) UHD Graphics 620 (KBL GT2)
OpenGL core profile version string: 4.6 (Core Profile) Mesa 23.2.1
OpenGL core profile shading language version string: 4.60
OpenGL core profile context flags: (none)
OpenGL core profile limits:
    GL_MAX_TEXTURE_SIZE = 16384
    GL_MAX_VIEWPORT_DIMS = 16384, 16384
    GL_MAX_SAMPLES = 16
OpenGL version string: 4.6 (Compatibility Profile) Mesa 23.2.1
OpenGL shading language version string: 4.60
OpenGL limits:
    GL_MAX_TEXTURE_SIZE = 8192
    GL_MAX_VERTEX_ATTRIBS = 16
`

func TestParseGLXInfo(t *testing.T) {
	g := ParseGLXInfo(glxinfoSample)

	assert.Equal(t, "Intel", g.Vendor)
	assert.Equal(t, "Mesa Intel(R) UHD Graphics 620 (KBL GT2)", g.Renderer)
	assert.Equal(t, "4.6 (Compatibility Profile) Mesa 23.2.1", g.Version)
	assert.Equal(t, 460, g.ShadingLanguage)
	assert.Equal(t, []Limit{
		{Name: "GL_MAX_TEXTURE_SIZE", Value: 16384},
		{Name: "GL_MAX_VERTEX_ATTRIBS", Value: 16},
		{Name: "GL_MAX_SAMPLES", Value: 16},
	}, g.Caps)
}

func TestParseGLXInfo_CoreOnly(t *testing.T) {
	g := ParseGLXInfo("OpenGL vendor string: X\nOpenGL core profile version string: 3.3\nOpenGL core profile shading language version string: 3.30 NVIDIA\n")
	assert.Equal(t, "3.3", g.Version)
	assert.Equal(t, 330, g.ShadingLanguage)
	assert.Empty(t, g.Caps)
}

func TestParseShadingLanguageCode(t *testing.T) {
	assert.Equal(t, 460, parseShadingLanguageCode("4.60 NVIDIA"))
	assert.Equal(t, 120, parseShadingLanguageCode("1.20"))
	assert.Equal(t, 0, parseShadingLanguageCode(""))
	assert.Equal(t, 0, parseShadingLanguageCode("OpenGL ES GLSL"))
	assert.Equal(t, 0, parseShadingLanguageCode("4.600"))
}
