package valueobject

import "time"

// Dates in this system follow calendar-day semantics: delivery dates and
// contract validity bounds compare by day, ignoring time of day and leaving
// the timezone of the stored value authoritative.

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b.In(a.Location())))
}

// DaysBetween returns the number of whole days from a to b. Negative when b
// precedes a. Both calendar days are re-anchored in UTC before subtracting,
// so a DST transition inside the span cannot shave a day off the count.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// DayBefore reports whether a falls on an earlier calendar day than b
func DayBefore(a, b time.Time) bool {
	return StartOfDay(a).Before(StartOfDay(b.In(a.Location())))
}

// DayAfter reports whether a falls on a later calendar day than b
func DayAfter(a, b time.Time) bool {
	return StartOfDay(a).After(StartOfDay(b.In(a.Location())))
}
