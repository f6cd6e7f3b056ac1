package calendar

import "fmt"

// DatePicker is the month-view date chooser. Changing the viewed month or
// year resets the chosen day to 1.
type DatePicker struct {
	view Month
	day  int
}

// NewDatePicker starts the picker on d. Invalid dates fall back to day 1.
func NewDatePicker(d Date) *DatePicker {
	p := &DatePicker{view: Month{Year: d.Year, Month: d.Month}, day: d.Day}
	if !d.Valid() {
		p.day = 1
	}
	return p
}

// View returns the month being shown
func (p *DatePicker) View() Month {
	return p.view
}

// Current returns the day the picker points at
func (p *DatePicker) Current() Date {
	return Date{Year: p.view.Year, Month: p.view.Month, Day: p.day}
}

// NextMonth advances the view by one month
func (p *DatePicker) NextMonth() {
	p.setView(p.view.Next())
}

// PrevMonth moves the view back by one month
func (p *DatePicker) PrevMonth() {
	p.setView(p.view.Prev())
}

// SetYear jumps the view to year, keeping the month
func (p *DatePicker) SetYear(year int) {
	p.setView(Month{Year: year, Month: p.view.Month})
}

// SetMonth jumps the view to month (1-12), keeping the year
func (p *DatePicker) SetMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range", month)
	}
	p.setView(Month{Year: p.view.Year, Month: month})
	return nil
}

func (p *DatePicker) setView(m Month) {
	if m != p.view {
		p.day = 1
	}
	p.view = m
}

// SelectDay picks a day of the viewed month
func (p *DatePicker) SelectDay(day int) error {
	if day < 1 || day > DaysInMonth(p.view.Year, p.view.Month) {
		return fmt.Errorf("%w: %d", ErrInvalidDay, day)
	}
	p.day = day
	return nil
}

// Confirm returns the chosen date, rejecting anything before floor.
// A zero floor disables the check.
func (p *DatePicker) Confirm(floor Date) (Date, error) {
	d := p.Current()
	if floor != (Date{}) && d.Before(floor) {
		return Date{}, fmt.Errorf("%w: %s is before %s", ErrPastDate, d, floor)
	}
	return d, nil
}

// ConfirmInto confirms the date and stores it in sel, clearing any weekday recurrence
func (p *DatePicker) ConfirmInto(sel *Selection, floor Date) error {
	d, err := p.Confirm(floor)
	if err != nil {
		return err
	}
	sel.SelectDate(d)
	return nil
}
