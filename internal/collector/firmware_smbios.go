//go:build !windows

package collector

import "github.com/siderolabs/go-smbios/smbios"

// SMBIOSFirmware reads the SMBIOS System Information structure. Reading
// SMBIOS usually needs elevated privileges; without them it reports nothing.
type SMBIOSFirmware struct{}

func (SMBIOSFirmware) SystemInfo() (string, string) {
	s, err := smbios.New()
	if err != nil {
		return "", ""
	}
	return s.SystemInformation.Manufacturer, s.SystemInformation.ProductName
}

// DefaultFirmware returns the firmware probe for this platform.
func DefaultFirmware() FirmwareProbe { return SMBIOSFirmware{} }
