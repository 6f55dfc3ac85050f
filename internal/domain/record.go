package domain

import (
	"regexp"
	"sort"
	"strconv"
)

// PromptRecord is one consolidated prompt extracted from a text file.
type PromptRecord struct {
	ID     int
	Prompt string
}

// CaptionRecord is one processed image row. Caption is empty when encoding
// or the remote call failed; such rows never reach the final CSV.
type CaptionRecord struct {
	ID            string
	Prompt        string
	ImageFilename string
	Caption       string
}

// Failed reports whether the record represents a failed item.
func (r CaptionRecord) Failed() bool {
	return r.Caption == ""
}

var digitRun = regexp.MustCompile(`\d+`)

// NumericID extracts the first maximal digit run from s.
// Parameters:
//   - s: filename or identifier to inspect.
//
// Returns:
//   - int: parsed numeric identifier.
//   - bool: false when s contains no digits.
func NumericID(s string) (int, bool) {
	m := digitRun.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Digit run longer than an int; fall back to exclusion.
		return 0, false
	}
	return n, true
}

// SortRecords orders records ascending by identifier. IDs containing a digit
// run compare numerically, everything else lexicographically; numeric IDs
// sort before non-numeric ones.
func SortRecords(records []CaptionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ni, iok := NumericID(records[i].ID)
		nj, jok := NumericID(records[j].ID)
		switch {
		case iok && jok:
			if ni != nj {
				return ni < nj
			}
			return records[i].ID < records[j].ID
		case iok:
			return true
		case jok:
			return false
		default:
			return records[i].ID < records[j].ID
		}
	})
}

// SortPrompts orders prompt records ascending by numeric ID.
func SortPrompts(records []PromptRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
}
