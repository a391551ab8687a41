// Package datefmt renders timestamps the way the shop shows them to customers.
package datefmt

import "time"

const (
	shortLayout = "Jan 2, 2006"
	longLayout  = "January 2, 2006 at 03:04 PM"
)

// Lagos is West Africa Time. Nigeria does not observe daylight saving.
var Lagos = time.FixedZone("WAT", 60*60)

// Now is the clock used for zero timestamps.
var Now = time.Now

// Short formats t like "Mar 4, 2025" in Lagos time. A zero t formats as now.
func Short(t time.Time) string {
	return ShortIn(t, Lagos)
}

// Long formats t like "March 4, 2025 at 02:30 PM" in Lagos time. A zero t formats as now.
func Long(t time.Time) string {
	return LongIn(t, Lagos)
}

func ShortIn(t time.Time, loc *time.Location) string {
	return orNow(t).In(location(loc)).Format(shortLayout)
}

func LongIn(t time.Time, loc *time.Location) string {
	return orNow(t).In(location(loc)).Format(longLayout)
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return Now()
	}
	return t
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
