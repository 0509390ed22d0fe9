//go:build windows

package collector

import "github.com/yusufpapurcu/wmi"

type win32ComputerSystem struct {
	Manufacturer string
	Model        string
}

// WMIFirmware reads the machine vendor and model from Win32_ComputerSystem.
type WMIFirmware struct{}

func (WMIFirmware) SystemInfo() (string, string) {
	var cs []win32ComputerSystem
	if err := wmi.Query("SELECT Manufacturer, Model FROM Win32_ComputerSystem", &cs); err != nil || len(cs) == 0 {
		return "", ""
	}
	return cs[0].Manufacturer, cs[0].Model
}

// DefaultFirmware returns the firmware probe for this platform.
func DefaultFirmware() FirmwareProbe { return WMIFirmware{} }
