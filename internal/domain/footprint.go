package domain

import (
	"encoding/json"
	"math"
)

// Footprint holds the per-category occurrence counts for one tracking period.
// The zero value is a valid, empty footprint.
type Footprint struct {
	counts [categoryCount]int
}

// FootprintFromCounts builds a Footprint from a possibly incomplete mapping.
// Missing categories default to zero, unknown keys are ignored and negative
// counts are clamped to zero.
func FootprintFromCounts(counts map[string]int) Footprint {
	var f Footprint
	for k, v := range counts {
		i, ok := Category(k).index()
		if !ok {
			continue
		}
		f.counts[i] = max(v, 0)
	}
	return f
}

// Count returns the count recorded for c.
func (f Footprint) Count(c Category) int {
	i, ok := c.index()
	if !ok {
		return 0
	}
	return f.counts[i]
}

// Increment adds one unit to c and returns the new count.
func (f *Footprint) Increment(c Category) int {
	i, ok := c.index()
	if !ok {
		return 0
	}
	f.counts[i]++
	return f.counts[i]
}

// Decrement removes one unit from c. It reports false and leaves the
// footprint untouched when the count is already zero.
func (f *Footprint) Decrement(c Category) (int, bool) {
	i, ok := c.index()
	if !ok || f.counts[i] == 0 {
		return 0, false
	}
	f.counts[i]--
	return f.counts[i], true
}

// Reset zeroes every category.
func (f *Footprint) Reset() {
	f.counts = [categoryCount]int{}
}

// IsZero reports whether no activity has been recorded.
func (f Footprint) IsZero() bool {
	return f.counts == [categoryCount]int{}
}

// Total returns the footprint in kg CO2, never below zero.
func (f Footprint) Total() float64 {
	var total float64
	for i, n := range f.counts {
		total += float64(n) * categoryTable[i].factor
	}
	// Floating sums like 3*0.1 leave noise in the last bits.
	total = math.Round(total*1e9) / 1e9
	return math.Max(0, total)
}

// Counts returns the footprint as a mapping keyed by category identifier.
func (f Footprint) Counts() map[string]int {
	out := make(map[string]int, categoryCount)
	for i, c := range categories {
		out[string(c)] = f.counts[i]
	}
	return out
}

// MarshalJSON encodes the footprint as an object keyed by category.
func (f Footprint) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Counts())
}

// UnmarshalJSON decodes a stored footprint with the defaults of
// FootprintFromCounts applied.
func (f *Footprint) UnmarshalJSON(b []byte) error {
	var counts map[string]int
	if err := json.Unmarshal(b, &counts); err != nil {
		return err
	}
	*f = FootprintFromCounts(counts)
	return nil
}

// Level classifies a total for display.
type Level string

// Footprint levels.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ScaleMaxKg is the total at which the progress scale is full.
const ScaleMaxKg = 50.0

// LevelFor returns the display level for a total.
func LevelFor(total float64) Level {
	switch {
	case total < 15:
		return LevelLow
	case total < 30:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// ProgressPercent maps a total onto the 0-100 display scale.
func ProgressPercent(total float64) float64 {
	return math.Min(100, math.Max(0, total/ScaleMaxKg*100))
}
