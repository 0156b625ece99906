package accounts

import (
	"fmt"
	"strconv"
	"strings"
)

// Separator splits hierarchy segments inside an account number, e.g. "1000-2".
const Separator = "-"

// StandardizeNumber trims whitespace around each hierarchy segment,
// so " 1000 - 2 " becomes "1000-2" and "1000" stays "1000".
func StandardizeNumber(number string) string {
	parts := strings.Split(number, Separator)
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return strings.Join(parts, Separator)
}

// IsSubNumber reports whether the number contains a hierarchy separator.
func IsSubNumber(number string) bool {
	return strings.Contains(number, Separator)
}

// NextSubNumber derives the next child number under parentNumber by taking the
// highest numeric suffix among existing sibling numbers plus one, starting at 1.
func NextSubNumber(parentNumber string, siblings []string) string {
	highest := 0
	for _, number := range siblings {
		if seq, ok := suffixSequence(number, parentNumber); ok && seq > highest {
			highest = seq
		}
	}
	return fmt.Sprintf("%s%s%d", parentNumber, Separator, highest+1)
}

// suffixSequence extracts the numeric sequence of a child number. The suffix is
// split off once; non-numeric trailing content is ignored and a suffix without
// leading digits counts as 0, so malformed numbers are never silently dropped.
func suffixSequence(number, parentNumber string) (int, bool) {
	prefix := parentNumber + Separator
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	return leadingInt(number[len(prefix):]), true
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	value, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return value
}
