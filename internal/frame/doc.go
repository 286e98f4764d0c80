// Package frame talks to Brilliant Labs Frame glasses over Bluetooth LE.
//
// Client implements session.Transport on top of tinygo.org/x/bluetooth.
// A Frame exposes one GATT service with two characteristics: the host
// writes Lua source and single-byte control signals to the TX
// characteristic, and anything the Lua interpreter prints comes back as
// notifications on the RX characteristic.
//
// Simulator implements the same interface in memory. It behaves enough
// like a real Frame to drive the whole session lifecycle without hardware:
//
//	sim := frame.NewSimulator(frame.SimulatorOptions{})
//	s := session.New(sim, session.Options{})
//	s.Connect()
package frame
