package common

import "testing"

func TestHasAny(t *testing.T) {
	if !HasAny("your_api_key_here", "changeme", "your_api_key") {
		t.Fatal("expected match")
	}
	if HasAny("204b682aafd0915f", "changeme", "your_api_key") {
		t.Fatal("unexpected match")
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"clear sky": "Clear sky",
		"":          "",
		"Mist":      "Mist",
		"éclair":    "Éclair",
	}
	for in, want := range tests {
		if got := Capitalize(in); got != want {
			t.Errorf("Capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}
