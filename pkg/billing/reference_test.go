package billing

import "testing"

func TestFormatBookingRef(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{1, "BK001"},
		{7, "BK007"},
		{999, "BK999"},
		{1000, "BK1000"},
	}
	for _, c := range cases {
		if got := FormatBookingRef(c.n); got != c.want {
			t.Errorf("FormatBookingRef(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestParseBookingRefNumber(t *testing.T) {
	if n, ok := ParseBookingRefNumber("BK042"); !ok || n != 42 {
		t.Fatalf("expected 42, got %d ok=%v", n, ok)
	}
	if n, ok := ParseBookingRefNumber("BK1000"); !ok || n != 1000 {
		t.Fatalf("expected 1000, got %d ok=%v", n, ok)
	}

	for _, ref := range []string{"BK007_P1", "XX001", "BK", "BKabc", ""} {
		if _, ok := ParseBookingRefNumber(ref); ok {
			t.Errorf("ParseBookingRefNumber(%q) should not parse", ref)
		}
	}
}

func TestMainRef(t *testing.T) {
	if got := MainRef("BK007_P2"); got != "BK007" {
		t.Fatalf("expected BK007, got %q", got)
	}
	if got := MainRef("BK007"); got != "BK007" {
		t.Fatalf("expected BK007, got %q", got)
	}
}

func TestPartialRef(t *testing.T) {
	if got := PartialRef("BK007", 3); got != "BK007_P3" {
		t.Fatalf("expected BK007_P3, got %q", got)
	}
	if !IsPartialRef("BK007_P1") {
		t.Fatal("BK007_P1 should be an installment reference")
	}
	if IsPartialRef("BK007") {
		t.Fatal("BK007 is a main reference")
	}
}
