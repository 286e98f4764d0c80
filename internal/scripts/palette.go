package scripts

// Palette holds the Frame display colour names used for the rotating
// greeting. VOID (index 0 on the device) is omitted since it renders as
// transparent.
var Palette = [15]string{
	"WHITE",
	"GREY",
	"RED",
	"PINK",
	"DARKBROWN",
	"BROWN",
	"ORANGE",
	"YELLOW",
	"DARKGREEN",
	"GREEN",
	"LIGHTGREEN",
	"NIGHTBLUE",
	"SEABLUE",
	"SKYBLUE",
	"CLOUDBLUE",
}

// ColorIndex returns the palette index for a sequence counter.
func ColorIndex(counter int) int {
	idx := counter % len(Palette)
	if idx < 0 {
		idx += len(Palette)
	}
	return idx
}

// ColorFor returns the palette colour for a sequence counter.
func ColorFor(counter int) string {
	return Palette[ColorIndex(counter)]
}
