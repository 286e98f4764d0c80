//go:build darwin

package frame

import "tinygo.org/x/bluetooth"

// parseAddress parses a CoreBluetooth peripheral identifier. macOS hides
// MAC addresses, so devices are known by a per-host UUID.
func parseAddress(id string) (bluetooth.Address, error) {
	uuid, err := bluetooth.ParseUUID(id)
	if err != nil {
		return bluetooth.Address{}, err
	}
	return bluetooth.Address{UUID: uuid}, nil
}
