package booking

import (
	"testing"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.AppointmentScheduled, models.AppointmentConfirmed, true},
		{models.AppointmentScheduled, models.AppointmentCancelled, true},
		{models.AppointmentConfirmed, models.AppointmentCancelled, true},
		{models.AppointmentConfirmed, models.AppointmentScheduled, false},
		{models.AppointmentCancelled, models.AppointmentScheduled, false},
		{models.AppointmentCancelled, models.AppointmentConfirmed, false},
		{models.AppointmentScheduled, models.AppointmentScheduled, false},
		{"unknown", models.AppointmentCancelled, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestParseBookingDate(t *testing.T) {
	today := time.Now().UTC().Format(dateLayout)
	if _, err := parseBookingDate(today); err != nil {
		t.Fatalf("today should be bookable: %v", err)
	}

	future := time.Now().UTC().AddDate(0, 0, 7).Format(dateLayout)
	if _, err := parseBookingDate(future); err != nil {
		t.Fatalf("future date should be bookable: %v", err)
	}

	past := time.Now().UTC().AddDate(0, 0, -1).Format(dateLayout)
	if _, err := parseBookingDate(past); err != ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate for past date, got %v", err)
	}

	for _, raw := range []string{"", "not-a-date", "2026/01/02", "02-01-2026"} {
		if _, err := parseBookingDate(raw); err != ErrInvalidDate {
			t.Errorf("parseBookingDate(%q): expected ErrInvalidDate, got %v", raw, err)
		}
	}
}

func TestParseBookingTime(t *testing.T) {
	for _, raw := range []string{"09:00", "23:59", " 14:30 "} {
		if _, err := parseBookingTime(raw); err != nil {
			t.Errorf("parseBookingTime(%q): unexpected error %v", raw, err)
		}
	}
	for _, raw := range []string{"", "25:00", "9am", "14:60", "noon"} {
		if _, err := parseBookingTime(raw); err != ErrInvalidTime {
			t.Errorf("parseBookingTime(%q): expected ErrInvalidTime, got %v", raw, err)
		}
	}
}
