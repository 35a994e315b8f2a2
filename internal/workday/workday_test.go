package workday

import (
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

func TestBufferDeadline(t *testing.T) {
	tests := []struct {
		deadline string
		urgency  models.Urgency
		want     string
	}{
		{"2024-06-10", models.UrgencyCritical, "2024-06-10"},
		{"2024-06-10", models.UrgencyHigh, "2024-06-08"},
		{"2024-06-10", models.UrgencyMedium, "2024-06-07"},
		{"2024-06-10", models.UrgencyLow, "2024-06-07"},
		{"2024-06-12", models.UrgencyMedium, "2024-06-10"},
		{"2024-06-11", models.UrgencyMedium, "2024-06-08"},
		{"2024-06-09", models.UrgencyHigh, "2024-06-08"},
		{"2024-03-01", models.UrgencyLow, "2024-02-28"},
	}
	for _, tt := range tests {
		got, err := BufferDeadline(models.MustParseDate(tt.deadline), tt.urgency)
		if err != nil {
			t.Fatalf("%s/%s: %v", tt.deadline, tt.urgency, err)
		}
		if got.String() != tt.want {
			t.Fatalf("%s/%s: expected %s, got %s", tt.deadline, tt.urgency, tt.want, got)
		}
	}
}

func TestSubtractWorkingDaysRejectsInvalidInput(t *testing.T) {
	if _, err := SubtractWorkingDays(models.Date{}, 1); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument for zero date, got %v", err)
	}
	if _, err := SubtractWorkingDays(models.MustParseDate("2024-06-10"), -1); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument for negative n, got %v", err)
	}
}

func TestSubtractWorkingDaysProperties(t *testing.T) {
	base := models.MustParseDate("2020-01-01")
	rapid.Check(t, func(rt *rapid.T) {
		start := base.AddDays(rapid.IntRange(0, 3650).Draw(rt, "offset"))
		n := rapid.IntRange(0, 30).Draw(rt, "n")

		got, err := SubtractWorkingDays(start, n)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if got.After(start) {
			rt.Fatalf("result %s is after start %s", got, start)
		}
		if n > 0 && got.Weekday() == time.Sunday {
			rt.Fatalf("result %s lands on a Sunday", got)
		}

		working := 0
		for d := start.AddDays(-1); !d.Before(got); d = d.AddDays(-1) {
			if d.Weekday() != time.Sunday {
				working++
			}
		}
		if working != n {
			rt.Fatalf("counted %d working days between %s and %s, want %d", working, got, start, n)
		}
	})
}
