package wayland

import "strings"

// evdevByName maps a lowercase key name to its Linux evdev keycode. The
// table is the reverse of the teacher's keyCodeNames lookup
// (api/pkg/desktop/keyboard.go, built for its /dev/input key-state
// endpoint); here it drives outbound key injection instead of state
// polling.
var evdevByName = map[string]uint32{
	"esc": 1, "1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10,
	"0": 11, "-": 12, "=": 13, "backspace": 14, "tab": 15,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"[": 26, "]": 27, "enter": 28, "leftctrl": 29, "ctrl": 29,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	";": 39, "'": 40, "`": 41, "leftshift": 42, "shift": 42, "\\": 43,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
	",": 51, ".": 52, "/": 53, "rightshift": 54, "*": 55,
	"leftalt": 56, "alt": 56, "space": 57, "capslock": 58,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64, "f7": 65, "f8": 66, "f9": 67, "f10": 68,
	"f11": 87, "f12": 88,
	"rightctrl": 97, "rightalt": 100, "leftmeta": 125, "meta": 125, "rightmeta": 126,
	"home": 102, "up": 103, "pageup": 104, "left": 105, "right": 106,
	"end": 107, "down": 108, "pagedown": 109, "insert": 110, "delete": 111,
}

// evdevCode looks up a key name case-insensitively, returning ok=false
// for a name the table doesn't know (KeyDown/KeyUp then drop the event
// without logging rather than guessing).
func evdevCode(name string) (uint32, bool) {
	code, ok := evdevByName[strings.ToLower(name)]
	return code, ok
}
