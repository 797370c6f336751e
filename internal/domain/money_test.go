package domain

import (
	"testing"
	"time"
)

func TestMonthStart(t *testing.T) {
	d := time.Date(2025, 3, 17, 15, 4, 5, 0, time.UTC)
	got := MonthStart(d)
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestPreviousMonthStart_AcrossYear(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := PreviousMonthStart(jan)
	want := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestNextMonthStart_AcrossYear(t *testing.T) {
	dec := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	got := NextMonthStart(dec)
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDaysBetween_Inclusive(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(start, end); got != 30 {
		t.Errorf("Expected 30 days, got %d", got)
	}
	if got := DaysBetween(start, start); got != 1 {
		t.Errorf("Expected 1 day for same-day range, got %d", got)
	}
}

func TestOwed(t *testing.T) {
	if got := Owed(-25000); got != 25000 {
		t.Errorf("Expected 25000, got %d", got)
	}
	if got := Owed(0); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
}
