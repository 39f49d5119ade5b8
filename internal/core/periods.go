package core

import "time"

// PeriodTotals holds spending sums for the calendar windows containing now.
// The windows nest: an entry counted in Daily is also counted in Weekly,
// Monthly and Yearly.
type PeriodTotals struct {
	Daily   Money
	Weekly  Money
	Monthly Money
	Yearly  Money
}

// Sums buckets entries into daily/weekly/monthly/yearly totals relative to
// the given now. Window starts are: midnight of now's day, the most recent
// Sunday, the first of now's month, and January 1 of now's year, all in
// now's location. Entries dated before the year boundary contribute to no
// bucket. The input is not mutated.
func Sums(entries []Entry, now time.Time) PeriodTotals {
	loc := now.Location()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	startOfWeek := startOfDay.AddDate(0, 0, -int(startOfDay.Weekday()))
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	startOfYear := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)

	var totals PeriodTotals
	for _, e := range entries {
		d := e.Date
		if d.Before(startOfYear) {
			continue
		}
		totals.Yearly.Cents += e.Amount.Cents
		if d.Before(startOfMonth) {
			continue
		}
		totals.Monthly.Cents += e.Amount.Cents
		if d.Before(startOfWeek) {
			continue
		}
		totals.Weekly.Cents += e.Amount.Cents
		if d.Before(startOfDay) {
			continue
		}
		totals.Daily.Cents += e.Amount.Cents
	}
	return totals
}

// MonthStart returns the first instant of the month containing t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
