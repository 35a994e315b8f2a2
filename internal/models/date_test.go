package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDateAcceptsDriverTimestamps(t *testing.T) {
	cases := []string{"2024-06-10", "2024-06-10T00:00:00Z", "2024-06-10 00:00:00"}
	for _, raw := range cases {
		d, err := ParseDate(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if d.String() != "2024-06-10" {
			t.Fatalf("parse %q: got %s", raw, d)
		}
	}
	if _, err := ParseDate("10/06/2024"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		Deadline Date  `json:"deadline"`
		ETA      *Date `json:"eta"`
	}
	var p payload
	if err := json.Unmarshal([]byte(`{"deadline":"2024-06-10","eta":null}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Deadline.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %s", p.Deadline.Weekday())
	}
	if p.ETA != nil {
		t.Fatalf("expected nil eta, got %v", p.ETA)
	}
	out, err := json.Marshal(payload{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"deadline":null,"eta":null}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestWeekAndMonthRanges(t *testing.T) {
	start, end := MustParseDate("2024-06-09").WeekRange() // Sunday
	if start.String() != "2024-06-03" || end.String() != "2024-06-08" {
		t.Fatalf("unexpected week %s..%s", start, end)
	}
	start, end = MustParseDate("2024-06-12").WeekRange()
	if start.String() != "2024-06-10" || end.String() != "2024-06-15" {
		t.Fatalf("unexpected week %s..%s", start, end)
	}
	first, last := MustParseDate("2024-02-14").MonthRange()
	if first.String() != "2024-02-01" || last.String() != "2024-02-29" {
		t.Fatalf("unexpected month %s..%s", first, last)
	}
}

func TestStatusSets(t *testing.T) {
	if StatusRevision.Canonical() {
		t.Fatalf("revision must not be canonical")
	}
	if !StatusRevision.Valid() {
		t.Fatalf("revision must be a known status")
	}
	if Status("done").Valid() {
		t.Fatalf("unexpected valid status")
	}
	if !StatusClientFeedback.StopsTimer() || StatusOnHold.StopsTimer() {
		t.Fatalf("unexpected StopsTimer result")
	}
}

func TestDateAccessors(t *testing.T) {
	d := NewDate(2024, time.June, 30)
	if d.Year() != 2024 || d.Month() != time.June || d.Day() != 30 || d.Weekday() != time.Sunday {
		t.Fatalf("unexpected parts of %s", d)
	}
	next := d.AddDays(1)
	if next.String() != "2024-07-01" || !next.After(d) || !d.Before(next) || next.Equal(d) {
		t.Fatalf("AddDays(1) = %s", next)
	}
	if !d.Time().Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Time() = %v", d.Time())
	}
	if !(Date{}).IsZero() || (Date{}).String() != "" {
		t.Fatalf("zero date should render empty")
	}
}
