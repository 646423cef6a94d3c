package symbol

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"btc/usdt":    "BTC/USDT",
		"BTC-USDT":    "BTC/USDT",
		"BTCUSDT":     "BTC/USDT",
		"BTCXYZ":      "BTCXYZ",
		"":            "",
		"   ":         "   ",
		"KRW-BTC":     "KRW/BTC",
		"btc_usdt":    "BTC/USDT",
	}

	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToVenueJoined(t *testing.T) {
	if got := ToVenueJoined("BTC/USD", true); got != "btcusd" {
		t.Errorf("ToVenueJoined lower = %q, want btcusd", got)
	}
	if got := ToVenueJoined("BTC/USDT", false); got != "BTCUSDT" {
		t.Errorf("ToVenueJoined upper = %q, want BTCUSDT", got)
	}
}

func TestToBitfinexSymbol(t *testing.T) {
	if got := ToBitfinexSymbol("BTC/USD"); got != "tBTCUSD" {
		t.Errorf("ToBitfinexSymbol = %q, want tBTCUSD", got)
	}
}
