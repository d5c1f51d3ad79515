package availability

import "testing"

func TestParseDate(t *testing.T) {
	t.Run("accepts ISO calendar dates", func(t *testing.T) {
		date, err := ParseDate("2024-03-09")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if date.String() != "2024-03-09" {
			t.Fatalf("expected 2024-03-09, got %s", date)
		}
	})

	t.Run("rejects timestamps and garbage", func(t *testing.T) {
		for _, value := range []string{"", "2024-03-09T10:00:00Z", "09/03/2024", "2024-13-01", "not-a-date"} {
			if _, err := ParseDate(value); err == nil {
				t.Fatalf("expected error for %q", value)
			}
		}
	})
}

func TestDateNext(t *testing.T) {
	t.Run("steps within a month", func(t *testing.T) {
		date := mustDate(t, "2024-01-01")
		if got := date.Next().String(); got != "2024-01-02" {
			t.Fatalf("expected 2024-01-02, got %s", got)
		}
	})

	t.Run("rolls over month and year boundaries", func(t *testing.T) {
		cases := map[string]string{
			"2024-01-31": "2024-02-01",
			"2024-02-28": "2024-02-29", // leap year
			"2023-02-28": "2023-03-01",
			"2024-12-31": "2025-01-01",
		}
		for from, want := range cases {
			if got := mustDate(t, from).Next().String(); got != want {
				t.Fatalf("Next(%s): expected %s, got %s", from, want, got)
			}
		}
	})

	t.Run("is immune to DST transitions", func(t *testing.T) {
		// 2024-03-10 is a spring-forward date in several locales; stepping
		// through it must still visit every calendar day exactly once.
		date := mustDate(t, "2024-03-08")
		seen := []string{date.String()}
		for i := 0; i < 4; i++ {
			date = date.Next()
			seen = append(seen, date.String())
		}
		want := []string{"2024-03-08", "2024-03-09", "2024-03-10", "2024-03-11", "2024-03-12"}
		for i := range want {
			if seen[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, seen)
			}
		}
	})
}

func TestDateOrdering(t *testing.T) {
	earlier := mustDate(t, "2024-05-01")
	later := mustDate(t, "2024-05-02")

	if !earlier.Before(later) || later.Before(earlier) {
		t.Fatalf("Before ordering is wrong")
	}
	if !later.After(earlier) || earlier.After(later) {
		t.Fatalf("After ordering is wrong")
	}
	if !earlier.Equal(earlier) || earlier.Equal(later) {
		t.Fatalf("Equal is wrong")
	}
	if earlier.Compare(later) != -1 || later.Compare(earlier) != 1 || earlier.Compare(earlier) != 0 {
		t.Fatalf("Compare is wrong")
	}
}

func mustDate(t *testing.T, value string) Date {
	t.Helper()
	date, err := ParseDate(value)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", value, err)
	}
	return date
}
