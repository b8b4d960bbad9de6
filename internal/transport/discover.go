package transport

import (
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"

	sc64 "github.com/flashcart64/sc64ctl"
)

// usbVendorID and usbProductID are the FTDI FT232 identifiers the cart's
// onboard USB-serial bridge enumerates under.
const (
	usbVendorID  = "0403"
	usbProductID = "6014"
)

// serialPrefix is the prefix every SC64 reports in its USB serial number
// string, used to tell an SC64 apart from other FTDI FT232 devices that
// happen to share the same VID/PID.
const serialPrefix = "SC64"

// Discover lists the system ports that look like an SC64 cart, based on USB
// vendor/product ID and serial-number prefix. Ports are returned sorted by
// device path for deterministic output.
func Discover() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, sc64.NewConnectionError("listing serial ports", err)
	}
	var found []string
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if !strings.EqualFold(p.VID, usbVendorID) || !strings.EqualFold(p.PID, usbProductID) {
			continue
		}
		if !strings.HasPrefix(p.SerialNumber, serialPrefix) {
			continue
		}
		found = append(found, p.Name)
	}
	sort.Strings(found)
	return found, nil
}

// DiscoverOne returns the single SC64 port found on the system. It is an
// error for zero or more than one to be present, since the caller has no
// other way to disambiguate.
func DiscoverOne() (string, error) {
	ports, err := Discover()
	if err != nil {
		return "", err
	}
	switch len(ports) {
	case 0:
		return "", sc64.NewConnectionError("no SC64 device found", nil)
	case 1:
		return ports[0], nil
	default:
		return "", sc64.NewConnectionError("multiple SC64 devices found, specify a port", nil)
	}
}
