package scripts

// ClearGlyph is written to blank the display. An empty string leaves the
// previous text on screen, a single space does not.
const ClearGlyph = " "

const displayTemplate = `frame.display.text("Hello #{{.Counter}}, battery "..frame.battery_level().."%", {{.X}}, {{.Y}}, {color="{{.Color}}"}) frame.display.show()`

const echoTemplate = `print("Hello #{{.Counter}} from firmware "..frame.FIRMWARE_VERSION)`

const clearTemplate = `frame.display.text("{{.Glyph}}", {{.X}}, {{.Y}}) frame.display.show()`

// Display shows the greeting for a counter value in its palette colour.
// The battery level is filled in on the device.
type Display struct {
	Counter int
	X, Y    int
}

// NewDisplay returns a Display anchored at the top-left pixel.
func NewDisplay(counter int) *Display {
	return &Display{Counter: counter, X: 1, Y: 1}
}

func (d *Display) Name() string         { return "display" }
func (d *Display) Template() string     { return displayTemplate }
func (d *Display) AwaitsResponse() bool { return false }

func (d *Display) Params() map[string]interface{} {
	return map[string]interface{}{
		"Counter": d.Counter,
		"Color":   ColorFor(d.Counter),
		"X":       d.X,
		"Y":       d.Y,
	}
}

// Echo asks the peer to print a line carrying the counter and its firmware
// version. The printed line comes back as the response.
type Echo struct {
	Counter int
}

// NewEcho returns an Echo for a counter value.
func NewEcho(counter int) *Echo {
	return &Echo{Counter: counter}
}

func (e *Echo) Name() string         { return "echo" }
func (e *Echo) Template() string     { return echoTemplate }
func (e *Echo) AwaitsResponse() bool { return true }

func (e *Echo) Params() map[string]interface{} {
	return map[string]interface{}{"Counter": e.Counter}
}

// Clear blanks the display.
type Clear struct {
	X, Y int
}

// NewClear returns a Clear anchored at the top-left pixel.
func NewClear() *Clear {
	return &Clear{X: 1, Y: 1}
}

func (c *Clear) Name() string         { return "clear" }
func (c *Clear) Template() string     { return clearTemplate }
func (c *Clear) AwaitsResponse() bool { return false }

func (c *Clear) Params() map[string]interface{} {
	return map[string]interface{}{
		"Glyph": ClearGlyph,
		"X":     c.X,
		"Y":     c.Y,
	}
}
