package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// luaEnv is the slice of the Frame Lua API the simulator understands.
type luaEnv struct {
	firmware string
	battery  int

	// draw receives frame.display.text calls; show marks the buffer visible.
	draw  func(text string, x, y int, color string)
	show  func()
	print func(line string)
}

// run executes a payload made of the calls the session sends. Unknown
// statements fail the same way the firmware reports them: as printed text.
func (env *luaEnv) run(src string) error {
	pos := 0
	for {
		pos = skipSpace(src, pos)
		if pos >= len(src) {
			return nil
		}

		var (
			next int
			err  error
		)
		switch {
		case strings.HasPrefix(src[pos:], "print("):
			next, err = env.callPrint(src, pos+len("print"))
		case strings.HasPrefix(src[pos:], "frame.display.text("):
			next, err = env.callText(src, pos+len("frame.display.text"))
		case strings.HasPrefix(src[pos:], "frame.display.show()"):
			env.show()
			next = pos + len("frame.display.show()")
		default:
			end := strings.IndexAny(src[pos:], " \n;")
			if end < 0 {
				end = len(src) - pos
			}
			return fmt.Errorf("[string \"...\"]:1: unsupported statement near '%s'", src[pos:pos+end])
		}
		if err != nil {
			return err
		}
		pos = next
	}
}

func (env *luaEnv) callPrint(src string, open int) (int, error) {
	args, end, err := splitArgs(src, open)
	if err != nil {
		return 0, err
	}
	parts := make([]string, 0, len(args))
	for _, a := range args {
		v, err := env.eval(a)
		if err != nil {
			return 0, err
		}
		parts = append(parts, v)
	}
	env.print(strings.Join(parts, "\t"))
	return end, nil
}

func (env *luaEnv) callText(src string, open int) (int, error) {
	args, end, err := splitArgs(src, open)
	if err != nil {
		return 0, err
	}
	if len(args) < 3 {
		return 0, fmt.Errorf("frame.display.text: expected at least 3 arguments, got %d", len(args))
	}

	text, err := env.eval(args[0])
	if err != nil {
		return 0, err
	}
	x, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return 0, fmt.Errorf("frame.display.text: bad x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(args[2]))
	if err != nil {
		return 0, fmt.Errorf("frame.display.text: bad y: %w", err)
	}

	color := "WHITE"
	if len(args) > 3 {
		color, err = parseColorOption(args[3])
		if err != nil {
			return 0, err
		}
	}

	env.draw(text, x, y, color)
	return end, nil
}

// eval evaluates a ".." concatenation of string literals, numbers and the
// supported frame fields.
func (env *luaEnv) eval(expr string) (string, error) {
	var b strings.Builder
	for _, term := range splitTopLevel(expr, "..") {
		term = strings.TrimSpace(term)
		switch {
		case strings.HasPrefix(term, `"`):
			s, err := strconv.Unquote(term)
			if err != nil {
				return "", fmt.Errorf("malformed string %s", term)
			}
			b.WriteString(s)
		case term == "frame.FIRMWARE_VERSION":
			b.WriteString(env.firmware)
		case term == "frame.battery_level()":
			b.WriteString(strconv.Itoa(env.battery))
		default:
			if _, err := strconv.ParseFloat(term, 64); err == nil {
				b.WriteString(term)
				continue
			}
			return "", fmt.Errorf("attempt to concatenate a nil value (%s)", term)
		}
	}
	return b.String(), nil
}

func parseColorOption(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "{") || !strings.HasSuffix(arg, "}") {
		return "", fmt.Errorf("frame.display.text: options must be a table")
	}
	for _, field := range strings.Split(arg[1:len(arg)-1], ",") {
		k, v, ok := strings.Cut(field, "=")
		if !ok || strings.TrimSpace(k) != "color" {
			continue
		}
		color, err := strconv.Unquote(strings.TrimSpace(v))
		if err != nil {
			return "", fmt.Errorf("frame.display.text: bad color %s", v)
		}
		return color, nil
	}
	return "WHITE", nil
}

// splitArgs reads a parenthesised argument list starting at src[open] and
// returns the top-level arguments and the index just past ')'.
func splitArgs(src string, open int) ([]string, int, error) {
	if open >= len(src) || src[open] != '(' {
		return nil, 0, fmt.Errorf("expected '(' at %d", open)
	}

	depth := 0
	inString := false
	start := open + 1
	var args []string
	for i := open; i < len(src); i++ {
		c := src[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '{':
			depth++
		case ')', '}':
			depth--
			if depth == 0 {
				if arg := strings.TrimSpace(src[start:i]); arg != "" || len(args) > 0 {
					args = append(args, arg)
				}
				return args, i + 1, nil
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(src[start:i]))
				start = i + 1
			}
		}
	}
	return nil, 0, fmt.Errorf("unfinished argument list")
}

// splitTopLevel splits s on sep outside string literals and brackets.
func splitTopLevel(s, sep string) []string {
	var parts []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '{':
			depth++
		case ')', '}':
			depth--
		default:
			if depth == 0 && strings.HasPrefix(s[i:], sep) {
				parts = append(parts, s[start:i])
				i += len(sep) - 1
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && strings.ContainsRune(" \t\r\n;", rune(s[pos])) {
		pos++
	}
	return pos
}
