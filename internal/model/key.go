package model

import (
	"strconv"
	"strings"
)

// keyNames maps Traktor's Camelot-style key codes to musical names.
var keyNames = map[string]string{
	"1m": "A min", "2m": "E min", "3m": "B min", "4m": "F# min",
	"5m": "C# min", "6m": "G# min", "7m": "Eb min", "8m": "Bb min",
	"9m": "F min", "10m": "C min", "11m": "G min", "12m": "D min",
	"1d": "C maj", "2d": "G maj", "3d": "D maj", "4d": "A maj",
	"5d": "E maj", "6d": "B maj", "7d": "F# maj", "8d": "Db maj",
	"9d": "Ab maj", "10d": "Eb maj", "11d": "Bb maj", "12d": "F maj",
}

// KeyName returns the musical name for a key code, or the code itself
// when it is not recognised.
func KeyName(code string) string {
	if name, ok := keyNames[code]; ok {
		return name
	}
	return code
}

// CamelotKey is a parsed key code: wheel number 1-12 and mode.
type CamelotKey struct {
	Number int
	Minor  bool
}

// ParseKey parses codes like "8m" (minor) or "11d" (major).
func ParseKey(code string) (CamelotKey, bool) {
	code = strings.TrimSpace(strings.ToLower(code))
	if len(code) < 2 {
		return CamelotKey{}, false
	}
	mode := code[len(code)-1]
	if mode != 'm' && mode != 'd' {
		return CamelotKey{}, false
	}
	n, err := strconv.Atoi(code[:len(code)-1])
	if err != nil || n < 1 || n > 12 {
		return CamelotKey{}, false
	}
	return CamelotKey{Number: n, Minor: mode == 'm'}, true
}

// KeysCompatible reports whether two key codes mix harmonically, with a
// short description. Compatible keys are the same key, the relative key
// (same number, other mode) or a neighbour on the same ring (12 wraps to 1).
func KeysCompatible(a, b string) (bool, string) {
	ka, okA := ParseKey(a)
	kb, okB := ParseKey(b)
	if !okA || !okB {
		return false, "unknown key"
	}

	if ka == kb {
		return true, "same key"
	}
	if ka.Number == kb.Number {
		return true, "relative key (" + KeyName(a) + " / " + KeyName(b) + ")"
	}
	if ka.Minor == kb.Minor {
		diff := ka.Number - kb.Number
		if diff < 0 {
			diff = -diff
		}
		if diff == 1 || diff == 11 {
			return true, "adjacent key"
		}
	}
	return false, "incompatible keys (" + a + " vs " + b + ")"
}
