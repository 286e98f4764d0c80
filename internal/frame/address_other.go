//go:build !darwin

package frame

import "tinygo.org/x/bluetooth"

// parseAddress parses a MAC address such as "F3:8C:4A:22:01:9E".
func parseAddress(id string) (bluetooth.Address, error) {
	mac, err := bluetooth.ParseMAC(id)
	if err != nil {
		return bluetooth.Address{}, err
	}
	return bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}, nil
}
