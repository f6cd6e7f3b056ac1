// Package calendar builds month grids and handles the date/weekday selection
// used when scheduling reservations.
package calendar

import (
	"fmt"
	"time"
)

// Grid is a 6-row, 7-column month view starting on Sunday. Zero cells are blank.
type Grid [6][7]int

// DaysInMonth returns the number of days in month (1-12) of year
func DaysInMonth(year, month int) int {
	// Day 0 of the following month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday index (0 = Sunday) of the first day of the month
func FirstWeekday(year, month int) int {
	return int(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// BuildGrid lays out the days of a month
func BuildGrid(year, month int) Grid {
	var g Grid
	days := DaysInMonth(year, month)
	counter := 1 - FirstWeekday(year, month)
	for r := 0; r < 6; r++ {
		for c := 0; c < 7; c++ {
			if counter >= 1 && counter <= days {
				g[r][c] = counter
			}
			counter++
		}
	}
	return g
}

// Cells returns the grid in row-major order
func (g Grid) Cells() []int {
	out := make([]int, 0, 42)
	for _, row := range g {
		out = append(out, row[:]...)
	}
	return out
}

// Date is a calendar day without a time of day
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// DateOf returns the calendar day of t in t's location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// In returns midnight of d in loc
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

// Before reports whether d is strictly earlier than o
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Weekday returns the day of the week of d
func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// Valid reports whether d names a real day
func (d Date) Valid() bool {
	return d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= DaysInMonth(d.Year, d.Month)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsPast reports whether d is before the calendar day of now
func IsPast(d Date, now time.Time) bool {
	return d.Before(DateOf(now))
}

// Month identifies a month of a year
type Month struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// MonthOf returns the month containing t
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: int(t.Month())}
}

// Next returns the following month, wrapping December into January
func (m Month) Next() Month {
	if m.Month == 12 {
		return Month{Year: m.Year + 1, Month: 1}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Prev returns the preceding month, wrapping January into December
func (m Month) Prev() Month {
	if m.Month == 1 {
		return Month{Year: m.Year - 1, Month: 12}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Grid builds the month grid
func (m Month) Grid() Grid {
	return BuildGrid(m.Year, m.Month)
}

// Day is a rendered grid cell
type Day struct {
	Day  int  `json:"day"` // 0 for blank cells
	Past bool `json:"past"`
}

// Days renders the grid of m with past-day flags relative to now
func (m Month) Days(now time.Time) [6][7]Day {
	var out [6][7]Day
	g := m.Grid()
	for r, row := range g {
		for c, d := range row {
			if d == 0 {
				continue
			}
			out[r][c] = Day{Day: d, Past: IsPast(Date{Year: m.Year, Month: m.Month, Day: d}, now)}
		}
	}
	return out
}
