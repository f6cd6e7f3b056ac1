package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrPastDate is returned when confirming a date before the minimum date
	ErrPastDate = errors.New("date is in the past")
	// ErrInvalidDay is returned when a day does not exist in the viewed month
	ErrInvalidDay = errors.New("day is not in month")
	// ErrEmptySelection is returned when neither a date nor a weekday is selected
	ErrEmptySelection = errors.New("no date or weekday selected")
	// ErrInvalidLabel is returned by ParseLabel for unrecognized labels
	ErrInvalidLabel = errors.New("unrecognized date label")
)

// WeeklyPrefix starts every recurring-weekday label
const WeeklyPrefix = "매주"

var weekdayNames = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// WeekdayName returns the one-character Korean weekday name
func WeekdayName(w time.Weekday) string {
	return weekdayNames[w]
}

// ParseWeekday accepts a Korean weekday name or an English abbreviation
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(s)
	for i, n := range weekdayNames {
		if s == n {
			return time.Weekday(i), true
		}
	}
	for i := time.Sunday; i <= time.Saturday; i++ {
		if strings.EqualFold(s, i.String()[:3]) || strings.EqualFold(s, i.String()) {
			return i, true
		}
	}
	return 0, false
}

// AbsoluteLabel renders d as "YYYY년 MM월 DD일 (요일)"
func AbsoluteLabel(d Date) string {
	return fmt.Sprintf("%04d년 %02d월 %02d일 (%s)", d.Year, d.Month, d.Day, WeekdayName(d.Weekday()))
}

// WeeklyLabel renders a weekday set as "매주 월, 목" in Sunday-first order
func WeeklyLabel(days []time.Weekday) string {
	sorted := append([]time.Weekday(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	names := make([]string, 0, len(sorted))
	for i, w := range sorted {
		if i > 0 && sorted[i-1] == w {
			continue
		}
		names = append(names, WeekdayName(w))
	}
	return WeeklyPrefix + " " + strings.Join(names, ", ")
}

var absoluteLabelRE = regexp.MustCompile(`^(\d{4})년 (\d{2})월 (\d{2})일`)

// IsWeekly reports whether label describes a recurring weekday set
func IsWeekly(label string) bool {
	return strings.HasPrefix(label, WeeklyPrefix)
}

// AbsoluteDate extracts the date of an absolute label. The weekday suffix is ignored.
func AbsoluteDate(label string) (Date, bool) {
	m := absoluteLabelRE.FindStringSubmatch(label)
	if m == nil {
		return Date{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	date := Date{Year: y, Month: mo, Day: d}
	if !date.Valid() {
		return Date{}, false
	}
	return date, true
}

// ParseLabel decodes a dateLabel into a Selection
func ParseLabel(label string) (*Selection, error) {
	s := &Selection{}
	if IsWeekly(label) {
		rest := strings.TrimSpace(strings.TrimPrefix(label, WeeklyPrefix))
		if rest == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
		}
		for _, part := range strings.Split(rest, ",") {
			w, ok := ParseWeekday(part)
			if !ok {
				return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidLabel, part)
			}
			s.weekdays[w] = true
		}
		return s, nil
	}

	d, ok := AbsoluteDate(label)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	s.date = &d
	return s, nil
}

// Selection is either one absolute date or a set of weekdays, never both
type Selection struct {
	date     *Date
	weekdays [7]bool
}

// SelectDate picks an absolute date and clears any weekday recurrence
func (s *Selection) SelectDate(d Date) {
	s.date = &d
	s.weekdays = [7]bool{}
}

// ToggleWeekday flips a weekday in the recurrence set and clears the absolute date
func (s *Selection) ToggleWeekday(w time.Weekday) {
	s.date = nil
	s.weekdays[w] = !s.weekdays[w]
}

// Date returns the absolute date, if one is selected
func (s *Selection) Date() (Date, bool) {
	if s.date == nil {
		return Date{}, false
	}
	return *s.date, true
}

// Weekdays returns the selected weekdays, Sunday first
func (s *Selection) Weekdays() []time.Weekday {
	var out []time.Weekday
	for i, on := range s.weekdays {
		if on {
			out = append(out, time.Weekday(i))
		}
	}
	return out
}

// Label renders the selection as a reservation dateLabel
func (s *Selection) Label() (string, error) {
	if s.date != nil {
		return AbsoluteLabel(*s.date), nil
	}
	days := s.Weekdays()
	if len(days) == 0 {
		return "", ErrEmptySelection
	}
	return WeeklyLabel(days), nil
}

// Matches reports whether the selection falls on day d
func (s *Selection) Matches(d Date) bool {
	if s.date != nil {
		return *s.date == d
	}
	return s.weekdays[d.Weekday()]
}
