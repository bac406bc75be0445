// File: internal/xhs/text.go
package xhs

import (
	"fmt"

	"github.com/mattn/go-runewidth"
)

// DisplayWidth returns the terminal-cell style width of s: CJK runes count
// as two cells, ASCII as one. The publish form enforces its title limit in
// these units rather than runes.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// ValidateTitleWidth rejects titles wider than max display cells.
func ValidateTitleWidth(title string, max int) error {
	if w := DisplayWidth(title); w > max {
		return fmt.Errorf("title width %d exceeds limit %d (CJK characters count double)", w, max)
	}
	return nil
}
