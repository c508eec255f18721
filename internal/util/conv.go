package util

import (
	"strconv"
)

// ParseIntDefault parses s as a base-10 int, returning def when s is empty or invalid.
func ParseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
