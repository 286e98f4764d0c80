// Package scripts builds the Lua payloads that framehello sends to a Frame.
//
// Each payload is a Script: a text/template plus the parameters substituted
// into it. Render produces the exact string written to the device. The peer
// evaluates it with its resident Lua runtime; this package never interprets
// Lua itself.
//
//	payload, err := scripts.Render(scripts.NewDisplay(3))
//	// frame.display.text("Hello #3, battery "..frame.battery_level().."%", 1, 1, {color="PINK"}) frame.display.show()
//
// The display colour rotates through Palette by counter modulo its length.
package scripts
