//go:build debug

package collector

const debugBuild = true
