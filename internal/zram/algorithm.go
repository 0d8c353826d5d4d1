package zram

import (
	"errors"
	"strings"
)

// ErrNoSelection is returned when comp_algorithm has no bracketed entry.
var ErrNoSelection = errors.New("no selected compression algorithm")

// ParseAlgorithms splits comp_algorithm contents into the advertised
// algorithm names and the currently selected one.
//
// Example input:
//
//	lzo lzo-rle lz4 [zstd]
func ParseAlgorithms(text string) (available []string, selected string) {
	for _, tok := range strings.Fields(text) {
		if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") && len(tok) > 2 {
			tok = tok[1 : len(tok)-1]
			if selected == "" {
				selected = tok
			}
		}
		available = append(available, tok)
	}
	return available, selected
}

// SelectAlgorithm picks preferred if the device advertises it, otherwise the
// device's selected algorithm. fallback reports that preferred was not used.
// ErrNoSelection is returned when neither is available.
func SelectAlgorithm(text, preferred string) (algo string, fallback bool, err error) {
	available, selected := ParseAlgorithms(text)
	for _, a := range available {
		if a == preferred {
			return preferred, false, nil
		}
	}
	if selected == "" {
		return "", true, ErrNoSelection
	}
	return selected, true, nil
}
