package collector

// FirmwareProbe reports the machine vendor and product name.
type FirmwareProbe interface {
	SystemInfo() (vendor, product string)
}
