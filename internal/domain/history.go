package domain

import (
	"fmt"
	"strconv"
	"time"
)

// MaxHistory is the number of entries retained in a user's activity log.
const MaxHistory = 10

// EntryKind distinguishes the events recorded in history.
type EntryKind string

// History entry kinds.
const (
	EntryAdd    EntryKind = "add"
	EntryRemove EntryKind = "remove"
	EntryReset  EntryKind = "reset"
)

// ResetLabel and ResetIcon describe reset entries.
const (
	ResetLabel = "Period reset"
	ResetIcon  = "🔄"
)

// HistoryEntry is an immutable record of one state-changing event.
type HistoryEntry struct {
	Kind      EntryKind `json:"kind"`
	Category  Category  `json:"category,omitempty"`
	Label     string    `json:"label"`
	Icon      string    `json:"icon"`
	Impact    float64   `json:"impact"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActivityEntry records an add or remove of one unit of c that left the
// category at count.
func NewActivityEntry(kind EntryKind, c Category, count int, at time.Time) HistoryEntry {
	impact := c.ImpactFactor()
	if kind == EntryRemove && impact != 0 {
		impact = -impact
	}
	return HistoryEntry{
		Kind:      kind,
		Category:  c,
		Label:     c.Label(),
		Icon:      c.Icon(),
		Impact:    impact,
		Count:     count,
		Timestamp: at.UTC(),
	}
}

// NewResetEntry records a period reset that discarded total kg.
func NewResetEntry(total float64, at time.Time) HistoryEntry {
	return HistoryEntry{
		Kind:      EntryReset,
		Label:     ResetLabel,
		Icon:      ResetIcon,
		Impact:    0 - total,
		Timestamp: at.UTC(),
	}
}

// ImpactText formats the signed impact for display, e.g. "+0.2 kg".
// Removals always carry a minus sign, so a zero-factor removal reads "-0 kg".
func (e HistoryEntry) ImpactText() string {
	if e.Kind == EntryReset {
		return fmt.Sprintf("-%.1f kg", 0-e.Impact)
	}
	v := strconv.FormatFloat(e.Impact, 'f', -1, 64)
	switch {
	case e.Kind == EntryRemove && e.Impact == 0:
		v = "-" + v
	case e.Impact >= 0:
		v = "+" + v
	}
	return v + " kg"
}

// History is an activity log ordered newest first.
type History []HistoryEntry

// Prepend returns a new history with e as the newest entry, trimmed to
// MaxHistory. The receiver is not modified.
func (h History) Prepend(e HistoryEntry) History {
	n := min(len(h)+1, MaxHistory)
	out := make(History, n)
	out[0] = e
	copy(out[1:], h)
	return out
}

// Normalize returns a non-nil copy of h trimmed to MaxHistory.
func (h History) Normalize() History {
	n := min(len(h), MaxHistory)
	out := make(History, n)
	copy(out, h[:n])
	return out
}
