package picker

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Meridiem labels
const (
	AM = "오전"
	PM = "오후"
)

const (
	hourCycles   = 16
	minuteCycles = 20
)

// ErrInvalidTime is returned for values outside the picker enumerations
var ErrInvalidTime = errors.New("invalid time")

// Time is the picker's selection in 12-hour form
type Time struct {
	AmPm   string `json:"ampm"`
	Hour   int    `json:"hour"`   // 1..12
	Minute string `json:"minute"` // "00".."59"
}

func (t Time) String() string {
	return fmt.Sprintf("%s %d:%s", t.AmPm, t.Hour, t.Minute)
}

// Validate checks t against the picker enumerations
func (t Time) Validate() error {
	if t.AmPm != AM && t.AmPm != PM {
		return fmt.Errorf("%w: meridiem %q", ErrInvalidTime, t.AmPm)
	}
	if t.Hour < 1 || t.Hour > 12 {
		return fmt.Errorf("%w: hour %d", ErrInvalidTime, t.Hour)
	}
	if _, err := minuteIndex(t.Minute); err != nil {
		return err
	}
	return nil
}

func minuteIndex(s string) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: minute %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(s)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute %q", ErrInvalidTime, s)
	}
	return m, nil
}

// To24h converts a 12-hour selection to "HH:MM"
func To24h(t Time) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	h := t.Hour % 12
	if t.AmPm == PM {
		h += 12
	}
	return fmt.Sprintf("%02d:%s", h, t.Minute), nil
}

// From24h converts "HH:MM" to a 12-hour selection
func From24h(s string) (Time, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	h := parsed.Hour()
	t := Time{AmPm: AM, Hour: h % 12, Minute: fmt.Sprintf("%02d", parsed.Minute())}
	if h >= 12 {
		t.AmPm = PM
	}
	if t.Hour == 0 {
		t.Hour = 12
	}
	return t, nil
}

func hourValues() []string {
	v := make([]string, 12)
	for i := range v {
		v[i] = strconv.Itoa(i + 1)
	}
	return v
}

func minuteValues() []string {
	v := make([]string, 60)
	for i := range v {
		v[i] = fmt.Sprintf("%02d", i)
	}
	return v
}

// Picker combines the meridiem, hour and minute wheels
type Picker struct {
	AmPm   *AmPmColumn
	Hour   *Column
	Minute *Column
}

// New builds a picker aligned on initial
func New(initial Time, geo Geometry, now time.Time) (*Picker, error) {
	p := &Picker{
		AmPm:   NewAmPmColumn(geo),
		Hour:   NewColumn(hourValues(), hourCycles, geo),
		Minute: NewColumn(minuteValues(), minuteCycles, geo),
	}
	if err := p.Align(initial, now); err != nil {
		return nil, err
	}
	return p, nil
}

// Align positions every column on t and suppresses scroll handling briefly
func (p *Picker) Align(t Time, now time.Time) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m, _ := minuteIndex(t.Minute)

	ampm := 0
	if t.AmPm == PM {
		ampm = 1
	}
	p.AmPm.Align(ampm, now)
	p.Hour.Align(t.Hour-1, now)
	p.Minute.Align(m, now)
	return nil
}

// Tick flushes throttled commits and the meridiem snap. It reports whether
// the selection changed.
func (p *Picker) Tick(now time.Time) bool {
	a := p.AmPm.Tick(now)
	h := p.Hour.Tick(now)
	m := p.Minute.Tick(now)
	return a || h || m
}

// Selected is the current committed selection
func (p *Picker) Selected() Time {
	ampm := AM
	if p.AmPm.Index() == 1 {
		ampm = PM
	}
	return Time{AmPm: ampm, Hour: p.Hour.Index() + 1, Minute: p.Minute.Value()}
}

// Confirm returns the selection as "HH:MM"
func (p *Picker) Confirm() string {
	s, err := To24h(p.Selected())
	if err != nil {
		// Columns only hold enumerated values
		panic(err)
	}
	return s
}
