package core

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClampDay(t *testing.T) {
	cases := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  int
	}{
		{"day 31 on a 30-day month", 2025, time.April, 31, 30},
		{"day 31 on a 31-day month", 2025, time.January, 31, 31},
		{"day 30 in leap february", 2024, time.February, 30, 29},
		{"day 30 in regular february", 2025, time.February, 30, 28},
		{"day within range", 2025, time.June, 15, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampDay(tc.year, tc.month, tc.day); got != tc.want {
				t.Fatalf("ClampDay(%d, %s, %d) = %d, want %d", tc.year, tc.month, tc.day, got, tc.want)
			}
		})
	}
}

func TestNextClosing(t *testing.T) {
	cases := []struct {
		name       string
		today      time.Time
		closingDay int
		want       time.Time
	}{
		{"before closing", day(2025, time.March, 10), 20, day(2025, time.March, 20)},
		{"on closing day", day(2025, time.March, 20), 20, day(2025, time.March, 20)},
		{"after closing rolls to next month", day(2025, time.March, 21), 20, day(2025, time.April, 20)},
		{"closing 31 clamps in april", day(2025, time.April, 1), 31, day(2025, time.April, 30)},
		{"clamped closing lands on month end", day(2025, time.February, 28), 30, day(2025, time.February, 28)},
		{"december rolls into january", day(2025, time.December, 28), 15, day(2026, time.January, 15)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextClosing(tc.today, tc.closingDay); !got.Equal(tc.want) {
				t.Fatalf("NextClosing(%s, %d) = %s, want %s",
					tc.today.Format("2006-01-02"), tc.closingDay,
					got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

func TestDueDateFor(t *testing.T) {
	cases := []struct {
		name       string
		closing    time.Time
		closingDay int
		dueDay     int
		want       time.Time
	}{
		{"due after closing same month", day(2025, time.March, 20), 20, 30, day(2025, time.March, 30)},
		{"due before closing rolls to next month", day(2025, time.March, 25), 25, 5, day(2025, time.April, 5)},
		{"due day overflows month and clamps", day(2025, time.April, 25), 25, 31, day(2025, time.April, 30)},
		{"leap february clamps due day", day(2024, time.February, 25), 25, 31, day(2024, time.February, 29)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DueDateFor(tc.closing, tc.closingDay, tc.dueDay); !got.Equal(tc.want) {
				t.Fatalf("DueDateFor(%s, %d, %d) = %s, want %s",
					tc.closing.Format("2006-01-02"), tc.closingDay, tc.dueDay,
					got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

func TestCycleFor(t *testing.T) {
	start, end := CycleFor(day(2025, time.March, 31), 31)
	if want := day(2025, time.March, 1); !start.Equal(want) {
		t.Fatalf("cycle start = %s, want %s", start.Format("2006-01-02"), want.Format("2006-01-02"))
	}
	if want := day(2025, time.March, 31); !end.Equal(want) {
		t.Fatalf("cycle end = %s, want %s", end.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestClosingForOffset(t *testing.T) {
	// Closing day 31 walks through months of varying length without drifting.
	today := day(2025, time.January, 5)
	wants := []time.Time{
		day(2025, time.January, 31),
		day(2025, time.February, 28),
		day(2025, time.March, 31),
		day(2025, time.April, 30),
	}
	for n, want := range wants {
		if got := ClosingForOffset(today, 31, n); !got.Equal(want) {
			t.Fatalf("offset %d: got %s, want %s", n, got.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}
}

func TestNextInstallment(t *testing.T) {
	cases := []struct {
		name     string
		start    time.Time
		today    time.Time
		wantDate time.Time
		wantNum  int
	}{
		{"first installment still ahead", day(2025, time.January, 10), day(2025, time.January, 5), day(2025, time.January, 10), 1},
		{"mid-loan", day(2025, time.January, 10), day(2025, time.April, 1), day(2025, time.April, 10), 4},
		{"on the due day rolls forward", day(2025, time.January, 10), day(2025, time.April, 10), day(2025, time.May, 10), 5},
		{"anchor day 31 clamps", day(2025, time.January, 31), day(2025, time.February, 1), day(2025, time.February, 28), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotDate, gotNum := NextInstallment(tc.start, tc.today)
			if !gotDate.Equal(tc.wantDate) || gotNum != tc.wantNum {
				t.Fatalf("NextInstallment = (%s, %d), want (%s, %d)",
					gotDate.Format("2006-01-02"), gotNum,
					tc.wantDate.Format("2006-01-02"), tc.wantNum)
			}
		})
	}
}
