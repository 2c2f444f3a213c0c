package parser

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// LargestFromSrcset returns the URL with the largest width descriptor in a srcset
// such as "a.jpg 60w, b.jpg 640w". Ties go to the earlier entry. Entries without a
// parsable "Nw" descriptor are skipped; "" means no entry had one.
func LargestFromSrcset(srcset string) string {
	best := ""
	bestWidth := -1
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			continue
		}
		width, ok := parseWidth(fields[1])
		if !ok {
			continue
		}
		if width > bestWidth {
			best, bestWidth = fields[0], width
		}
	}
	return best
}

// FirstFromSrcset returns the first URL of a srcset with its descriptor removed.
func FirstFromSrcset(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseWidth(descriptor string) (int, bool) {
	digits, ok := strings.CutSuffix(descriptor, "w")
	if !ok || digits == "" {
		return 0, false
	}
	width, err := strconv.Atoi(digits)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(digits, "-") {
		// Oversized widths still outrank every smaller one.
		return math.MaxInt, true
	}
	if err != nil || width < 0 {
		return 0, false
	}
	return width, true
}
