package timeutil

import (
	"testing"
	"time"
)

func TestNow_AlwaysUTC(t *testing.T) {
	now := Now()

	if now.Location() != time.UTC {
		t.Errorf("Now() returned non-UTC timezone: %v", now.Location())
	}
}

func TestStartOfDay(t *testing.T) {
	input := time.Date(2026, 8, 20, 12, 30, 45, 0, time.UTC)
	want := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	if got := StartOfDay(input); !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		name      string
		input     time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid month",
			input:     time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "december rolls into next year",
			input:     time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC),
			wantStart: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthWindow(tt.input)
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("MonthWindow() = [%v, %v), want [%v, %v)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		input time.Time
		want  int
	}{
		{time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2028, 2, 10, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), 30},
	}

	for _, tt := range tests {
		if got := LastDayOfMonth(tt.input); got != tt.want {
			t.Errorf("LastDayOfMonth(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before due date", due.AddDate(0, 0, -3), 0},
		{"same day", due.Add(6 * time.Hour), 0},
		{"ten days later", due.AddDate(0, 0, 10), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysOverdue(due, tt.now); got != tt.want {
				t.Errorf("DaysOverdue() = %d, want %d", got, tt.want)
			}
		})
	}
}
