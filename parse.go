package codeshot

import (
	"strconv"
	"strings"
)

// ParseFontList parses "Family=Size;Family2=Size". A family without a size
// gets DefaultFontSize.
func ParseFontList(s string) ([]FontSpec, error) {
	var specs []FontSpec
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		family, size, hasSize := strings.Cut(part, "=")
		spec := FontSpec{Family: strings.TrimSpace(family), Size: DefaultFontSize}
		if spec.Family == "" {
			return nil, invalid("font %q has no family", part)
		}
		if hasSize {
			v, err := strconv.ParseFloat(strings.TrimSpace(size), 64)
			if err != nil || v <= 0 {
				return nil, invalid("font %q has a bad size", part)
			}
			spec.Size = v
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, invalid("empty font list %q", s)
	}
	return specs, nil
}

// maxLineNumber bounds the line numbers ParseLineRanges expands.
const maxLineNumber = 1 << 20

// ParseLineRanges parses "1;3-5" into the line numbers 1, 3, 4, 5.
func ParseLineRanges(s string) ([]int, error) {
	var lines []int
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || from < 1 {
			return nil, invalid("line range %q", part)
		}
		to := from
		if isRange {
			if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || to < from {
				return nil, invalid("line range %q", part)
			}
		}
		if to > maxLineNumber || len(lines)+to-from >= maxLineNumber {
			return nil, invalid("line range %q exceeds %d lines", part, maxLineNumber)
		}
		for n := from; n <= to; n++ {
			lines = append(lines, n)
		}
	}
	return lines, nil
}
