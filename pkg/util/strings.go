package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses s as an int or returns def if empty or invalid.
func ParseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
