package util

import (
	"strconv"
	"strings"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseIntParam parses a string to an integer, returning an error if parsing fails
func ParseIntParam(s string) (int, error) {
	return strconv.Atoi(s)
}

// ParseCSV parses a comma-separated string into a slice of trimmed,
// non-empty values.
func ParseCSV(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
