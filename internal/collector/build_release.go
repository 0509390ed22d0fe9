//go:build !debug

package collector

const debugBuild = false
