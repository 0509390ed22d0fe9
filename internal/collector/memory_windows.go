//go:build windows

package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/yusufpapurcu/wmi"
)

type win32ComputerSystemMemory struct {
	TotalPhysicalMemory uint64
}

// totalPhysicalMemory asks WMI first and falls back to GlobalMemoryStatusEx
// through gopsutil when the WMI service is unavailable.
func totalPhysicalMemory() uint64 {
	var cs []win32ComputerSystemMemory
	err := wmi.Query("SELECT TotalPhysicalMemory FROM Win32_ComputerSystem", &cs)
	if err == nil && len(cs) > 0 && cs[0].TotalPhysicalMemory > 0 {
		return cs[0].TotalPhysicalMemory
	}

	vm, err := mem.VirtualMemoryWithContext(context.Background())
	if err != nil {
		return 0
	}
	return vm.Total
}
