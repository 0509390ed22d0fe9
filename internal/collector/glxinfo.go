package collector

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const glxinfoTimeout = 15 * time.Second

// ProbeGLXInfo queries the local X/GLX stack through glxinfo. It returns an
// error if glxinfo is missing or fails; callers treat that as "no context".
func ProbeGLXInfo(ctx context.Context) (StaticGraphics, error) {
	ctx, cancel := context.WithTimeout(ctx, glxinfoTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "glxinfo", "-B", "-l").Output()
	if err != nil {
		return StaticGraphics{}, fmt.Errorf("glxinfo: %w", err)
	}
	return ParseGLXInfo(string(out)), nil
}

// ParseGLXInfo extracts context strings and limits from glxinfo output.
// Compatibility-profile strings win over core-profile ones; for limits the
// first occurrence wins.
func ParseGLXInfo(out string) StaticGraphics {
	var (
		g          StaticGraphics
		coreVer    string
		coreGLSL   string
		compatGLSL string
	)
	limits := make(map[string]int)

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if key, val, ok := strings.Cut(line, ":"); ok && strings.HasPrefix(key, "OpenGL ") {
			val = strings.TrimSpace(val)
			switch key {
			case "OpenGL vendor string":
				g.Vendor = val
			case "OpenGL renderer string":
				g.Renderer = val
			case "OpenGL version string":
				g.Version = val
			case "OpenGL core profile version string":
				coreVer = val
			case "OpenGL shading language version string":
				compatGLSL = val
			case "OpenGL core profile shading language version string":
				coreGLSL = val
			}
			continue
		}

		if key, val, ok := strings.Cut(line, "="); ok {
			key = strings.TrimSpace(key)
			if !strings.HasPrefix(key, "GL_MAX_") {
				continue
			}
			if _, seen := limits[key]; seen {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				continue
			}
			limits[key] = n
		}
	}

	if g.Version == "" {
		g.Version = coreVer
	}
	if compatGLSL == "" {
		compatGLSL = coreGLSL
	}
	g.ShadingLanguage = parseShadingLanguageCode(compatGLSL)

	for _, name := range KnownLimits {
		if v, ok := limits[name]; ok {
			g.Caps = append(g.Caps, Limit{Name: name, Value: v})
		}
	}
	return g
}

// parseShadingLanguageCode turns "4.60 NVIDIA" into 460. Unparseable input
// yields 0.
func parseShadingLanguageCode(s string) int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	majorStr, minorStr, ok := strings.Cut(fields[0], ".")
	if !ok {
		return 0
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return 0
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil || minor < 0 || minor > 99 {
		return 0
	}
	return major*100 + minor
}
