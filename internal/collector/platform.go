package collector

import "runtime"

// unixLike lists GOOS values reported with os_unix set.
var unixLike = map[string]bool{
	"linux":     true,
	"darwin":    true,
	"freebsd":   true,
	"openbsd":   true,
	"netbsd":    true,
	"dragonfly": true,
	"solaris":   true,
	"illumos":   true,
	"aix":       true,
	"android":   true,
	"ios":       true,
}

// addPlatformFacts records the OS family flags for goos.
func addPlatformFacts(f *Facts, goos string) {
	f.AddFlag("os_win", goos == "windows")
	f.AddFlag("os_macosx", goos == "darwin")
	f.AddFlag("os_linux", goos == "linux")
	f.AddFlag("os_unix", unixLike[goos])
}

func hostOS() string { return runtime.GOOS }
