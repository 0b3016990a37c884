// Package extract pulls header fields out of normalized invoice text.
//
// Every field is resolved by an ordered list of strategies: the first one
// that finds a value wins. Extractors never fail; a field that cannot be
// found is reported as missing or defaulted.
package extract

import (
	"strings"
	"time"

	"github.com/MrJamesThe3rd/stockscan/internal/textnorm"
)

// Input is what every strategy sees.
type Input struct {
	Text textnorm.Text
	// KnownParties are supplier names already present in the catalog.
	KnownParties []string
	// OwnName is the scanning business itself and is never reported as counterpart.
	OwnName string
	Now     time.Time
}

// NewInput normalizes raw text into an Input.
func NewInput(raw string, known []string, ownName string, now time.Time) Input {
	return Input{
		Text:         textnorm.Normalize(raw),
		KnownParties: known,
		OwnName:      ownName,
		Now:          now,
	}
}

// Strategy tries to find one value.
type Strategy[T any] func(in Input) (T, bool)

// First evaluates strategies in order and returns the first success.
func First[T any](in Input, strategies ...Strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s(in); ok {
			return v, true
		}
	}

	var zero T

	return zero, false
}

func (in Input) isOwn(name string) bool {
	if in.OwnName == "" {
		return false
	}

	return strings.Contains(strings.ToLower(name), strings.ToLower(in.OwnName))
}

// window returns up to n lines starting at i.
func window(lines []string, i, n int) []string {
	end := min(i+n, len(lines))
	if i >= end {
		return nil
	}

	return lines[i:end]
}
