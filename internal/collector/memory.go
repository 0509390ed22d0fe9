package collector

const mebibyte = 1024 * 1024

// MemoryProbe reports total physical memory in megabytes. Zero means the
// platform gave no answer.
type MemoryProbe interface {
	TotalPhysicalMemoryMB() int
}

// MemoryProbeFunc adapts a function to MemoryProbe.
type MemoryProbeFunc func() int

func (f MemoryProbeFunc) TotalPhysicalMemoryMB() int { return f() }

// SystemMemory is the MemoryProbe backed by the build platform.
var SystemMemory MemoryProbe = MemoryProbeFunc(TotalPhysicalMemoryMB)

// TotalPhysicalMemoryMB returns installed RAM in megabytes, or 0 if unknown.
func TotalPhysicalMemoryMB() int {
	return bytesToMB(totalPhysicalMemory())
}

// bytesToMB rounds up. Some platforms leave memory reserved at boot out of
// the total, and the report should not show 8191 for an 8 GiB machine.
func bytesToMB(n uint64) int {
	if n == 0 {
		return 0
	}
	return int((n + mebibyte - 1) / mebibyte)
}
