// Package picker implements the scroll-snapping time picker as a set of
// column state machines. Columns track a scroll offset in pixels and resolve
// it to a value by modular index, so a column behaves as an endless wheel
// regardless of how the host renders it.
package picker

import (
	"math"
	"time"
)

const (
	// CommitThrottle is the minimum spacing between commits on one column
	CommitThrottle = 50 * time.Millisecond
	// SettleDelay is both the AM/PM snap debounce and the suppression window
	// after programmatic alignment
	SettleDelay = 80 * time.Millisecond
	// EdgeItems is how close to either strip end, in items, triggers re-centering
	EdgeItems = 3
)

// Geometry describes how items are laid out in a column viewport
type Geometry struct {
	ItemHeight   float64 // px per item
	PaddingItems int     // blank items rendered above the first value
	CenterOffset float64 // px from the viewport top to the selection band
}

// DefaultGeometry is a five-row viewport of 40px items with the selection in the middle row
var DefaultGeometry = Geometry{ItemHeight: 40, PaddingItems: 2, CenterOffset: 80}

// ScrollResult reports what one scroll event did
type ScrollResult struct {
	Top        float64 // scroll offset the host should now display
	Recentered bool    // Top was moved to the middle cycle
	Committed  bool    // the column's value changed
	Value      string  // committed value after the event
}

// Column is one endless wheel of values (hours or minutes)
type Column struct {
	values []string
	cycles int
	geo    Geometry

	top           float64
	committed     int
	lastCommit    time.Time
	pending       int
	hasPending    bool
	suppressUntil time.Time
}

// NewColumn builds a wheel of values repeated cycles times
func NewColumn(values []string, cycles int, geo Geometry) *Column {
	if cycles < 1 {
		cycles = 1
	}
	c := &Column{values: values, cycles: cycles, geo: geo}
	c.top = c.topFor(c.middle(0))
	return c
}

// Len is the number of rendered items across all cycles
func (c *Column) Len() int {
	return len(c.values) * c.cycles
}

// Top is the current scroll offset
func (c *Column) Top() float64 {
	return c.top
}

// Index is the committed index into the base values
func (c *Column) Index() int {
	return c.committed
}

// Value is the committed value
func (c *Column) Value() string {
	return c.values[c.committed]
}

// centered returns the strip index under the selection band
func (c *Column) centered(top float64) int {
	return int(math.Round((top+c.geo.CenterOffset)/c.geo.ItemHeight)) - c.geo.PaddingItems
}

// topFor is the inverse of centered
func (c *Column) topFor(idx int) float64 {
	return float64(idx+c.geo.PaddingItems)*c.geo.ItemHeight - c.geo.CenterOffset
}

func (c *Column) wrap(idx int) int {
	n := len(c.values)
	return ((idx % n) + n) % n
}

// middle maps a base index into the middle cycle of the strip
func (c *Column) middle(base int) int {
	return (c.cycles/2)*len(c.values) + base
}

func (c *Column) nearEdge(top float64) bool {
	margin := EdgeItems * c.geo.ItemHeight
	return top < c.topFor(0)+margin || top > c.topFor(c.Len()-1)-margin
}

// OffsetOf returns the scroll offset that centers a base index in the
// middle cycle
func (c *Column) OffsetOf(base int) float64 {
	return c.topFor(c.middle(c.wrap(base)))
}

// Align positions the column on a base index without committing through the
// scroll path, and ignores scroll events for SettleDelay.
func (c *Column) Align(base int, now time.Time) {
	base = c.wrap(base)
	c.top = c.topFor(c.middle(base))
	c.committed = base
	c.hasPending = false
	c.suppressUntil = now.Add(SettleDelay)
}

// Scroll handles a scroll event at offset top
func (c *Column) Scroll(top float64, now time.Time) ScrollResult {
	if now.Before(c.suppressUntil) {
		c.top = top
		return ScrollResult{Top: top, Value: c.Value()}
	}

	res := ScrollResult{Top: top}
	if c.nearEdge(top) {
		idx := c.centered(top)
		frac := top - c.topFor(idx)
		top = c.topFor(c.middle(c.wrap(idx))) + frac
		res.Top = top
		res.Recentered = true
	}
	c.top = top

	base := c.wrap(c.centered(top))
	switch {
	case base == c.committed:
		c.hasPending = false
	case now.Sub(c.lastCommit) >= CommitThrottle:
		c.commit(base, now)
		res.Committed = true
	default:
		c.pending = base
		c.hasPending = true
	}

	res.Value = c.Value()
	return res
}

// Tick commits a throttled value once its window has passed
func (c *Column) Tick(now time.Time) bool {
	if !c.hasPending || now.Sub(c.lastCommit) < CommitThrottle {
		return false
	}
	c.commit(c.pending, now)
	return true
}

func (c *Column) commit(base int, now time.Time) {
	c.committed = base
	c.lastCommit = now
	c.hasPending = false
}

// AmPmColumn is the two-item meridiem wheel. It snaps to the nearer end once
// scrolling has been quiet for SettleDelay.
type AmPmColumn struct {
	geo Geometry

	top           float64
	committed     int
	lastScroll    time.Time
	settling      bool
	suppressUntil time.Time
}

func NewAmPmColumn(geo Geometry) *AmPmColumn {
	return &AmPmColumn{geo: geo}
}

// Top is the current scroll offset
func (c *AmPmColumn) Top() float64 {
	return c.top
}

// Index is 0 for AM, 1 for PM
func (c *AmPmColumn) Index() int {
	return c.committed
}

// Align positions the column without committing through the scroll path
func (c *AmPmColumn) Align(idx int, now time.Time) {
	if idx != 0 {
		idx = 1
	}
	c.committed = idx
	c.top = float64(idx) * c.geo.ItemHeight
	c.settling = false
	c.suppressUntil = now.Add(SettleDelay)
}

// Scroll records a scroll event; the snap happens in Tick
func (c *AmPmColumn) Scroll(top float64, now time.Time) {
	top = math.Max(0, math.Min(top, c.geo.ItemHeight))
	c.top = top
	if now.Before(c.suppressUntil) {
		return
	}
	c.lastScroll = now
	c.settling = true
}

// Tick snaps once scrolling has settled. It reports whether the value changed.
func (c *AmPmColumn) Tick(now time.Time) bool {
	if !c.settling || now.Sub(c.lastScroll) < SettleDelay {
		return false
	}
	c.settling = false

	target := 0
	if c.top >= c.geo.ItemHeight/2 {
		target = 1
	}
	c.top = float64(target) * c.geo.ItemHeight
	if target == c.committed {
		return false
	}
	c.committed = target
	return true
}
