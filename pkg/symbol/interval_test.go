package symbol

import "testing"

func TestIntervalToMs(t *testing.T) {
	cases := map[string]int64{
		"1m":      60_000,
		"1h":      3_600_000,
		"1d":      86_400_000,
		"1w":      604_800_000,
		"30d":     2_592_000_000,
		"unknown": 3_600_000,
	}

	for in, want := range cases {
		if got := IntervalToMs(in); got != want {
			t.Errorf("IntervalToMs(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestCanonicalInterval(t *testing.T) {
	cases := map[string]string{
		"D":        "1d",
		"W":        "1w",
		"M":        "1M",
		"1min":     "1m",
		"60min":    "60m",
		"4hour":    "4h",
		"1day":     "1d",
		"1week":    "1w",
		"1mon":     "1M",
		"MINUTE_1": "1m",
		"HOUR_1":   "1h",
		"DAY_1":    "1d",
		"1M":       "1M",
		"1H":       "1h",
		"1D":       "1d",
		"7D":       "7d",
	}

	for in, want := range cases {
		if got := CanonicalInterval(in); got != want {
			t.Errorf("CanonicalInterval(%q) = %q, want %q", in, got, want)
		}
	}
}
