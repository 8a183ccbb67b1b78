package core

import "time"

// Billing-cycle date math. Closing and due days are configured as days of
// the month; every computed date clamps the day to the length of its
// target month, so a day-31 configuration lands on the 30th (or on the
// 28th/29th of February) instead of spilling into the next month.

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay fits a configured day of the month into the given month.
func ClampDay(year int, month time.Month, day int) int {
	if max := daysIn(year, month); day > max {
		return max
	}
	return day
}

// dayInMonth builds the clamped date for a configured day of the month.
func dayInMonth(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, ClampDay(year, month, day), 0, 0, 0, 0, time.UTC)
}

// addMonths moves a (year, month) pair forward, normalizing overflow.
func addMonths(year int, month time.Month, n int) (int, time.Month) {
	t := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// NextClosing returns the first statement closing on or after today.
// Once today is past the closing day the cycle rolls to next month.
func NextClosing(today time.Time, closingDay int) time.Time {
	year, month := today.Year(), today.Month()
	if today.Day() > ClampDay(year, month, closingDay) {
		year, month = addMonths(year, month, 1)
	}
	return dayInMonth(year, month, closingDay)
}

// DueDateFor returns the payment due date for a statement that closes on
// the given date. When the due day falls after the closing day the due
// date lands in the same cycle month; otherwise it rolls to the month
// after the closing.
func DueDateFor(closing time.Time, closingDay, dueDay int) time.Time {
	delta := dueDay - closingDay
	if delta < 0 {
		year, month := addMonths(closing.Year(), closing.Month(), 1)
		return dayInMonth(year, month, dueDay)
	}
	due := closing.AddDate(0, 0, delta)
	// Crossing into the next month means the due day does not exist in
	// the cycle month; clamp it there instead of spilling over.
	if due.Month() != closing.Month() {
		return dayInMonth(closing.Year(), closing.Month(), dueDay)
	}
	return due
}

// CycleFor returns the period covered by the statement closing on the
// given date: the day after the previous closing through the closing.
func CycleFor(closing time.Time, closingDay int) (start, end time.Time) {
	year, month := addMonths(closing.Year(), closing.Month(), -1)
	prev := dayInMonth(year, month, closingDay)
	return prev.AddDate(0, 0, 1), closing
}

// ClosingForOffset returns the statement closing n months after the next
// one, used when projecting several cycles ahead.
func ClosingForOffset(today time.Time, closingDay, n int) time.Time {
	base := NextClosing(today, closingDay)
	year, month := addMonths(base.Year(), base.Month(), n)
	return dayInMonth(year, month, closingDay)
}

// NextInstallment returns the date and 1-based index of the first loan
// installment strictly after today, anchored on the start date's day of
// the month.
func NextInstallment(start, today time.Time) (time.Time, int) {
	months := (today.Year()-start.Year())*12 + int(today.Month()) - int(start.Month())
	if months < 0 {
		months = 0
	}
	year, month := addMonths(start.Year(), start.Month(), months)
	due := dayInMonth(year, month, start.Day())
	n := months
	if !due.After(today) {
		year, month = addMonths(year, month, 1)
		due = dayInMonth(year, month, start.Day())
		n++
	}
	return due, n + 1
}

// InstallmentAfter advances an installment date by n months, keeping the
// configured anchor day.
func InstallmentAfter(start time.Time, due time.Time, n int) time.Time {
	year, month := addMonths(due.Year(), due.Month(), n)
	return dayInMonth(year, month, start.Day())
}
